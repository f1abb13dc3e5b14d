package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"collider-lab/internal/domain"
	"collider-lab/internal/feed"
	"collider-lab/internal/generator"
	"collider-lab/internal/idhash"
	"collider-lab/internal/metrics"
	"collider-lab/internal/orchestrator"
	"collider-lab/internal/storage"
)

// DefaultFlushSize is the number of records written per InsertBulk call.
const DefaultFlushSize = 500

// Generator produces one event per request. Implemented by *orchestrator.Orchestrator.
type Generator interface {
	GenerateEvent(ctx context.Context, req orchestrator.Request) (*domain.Event, error)
}

// Publisher receives every record of a run. Implemented by *feed.Hub.
type Publisher interface {
	Publish(ctx context.Context, r *domain.EventRecord) error
}

// Recorder receives batch phase outcomes. Implemented by observability.Metrics.
type Recorder interface {
	RecordBatchRun(phase, status string, durationSeconds float64)
	RecordAggregates(n int)
}

// Runner executes plans.
type Runner struct {
	generator  Generator
	events     storage.EventStore
	aggregator *metrics.Aggregator
	publisher  Publisher
	recorder   Recorder
	logger     *zap.Logger
	flushSize  int
	now        func() time.Time
}

// Options for creating Runner.
type Options struct {
	// Required
	Generator Generator
	Events    storage.EventStore

	// Optional
	Aggregator *metrics.Aggregator // nil skips aggregation
	Publisher  Publisher
	Recorder   Recorder
	Logger     *zap.Logger
	FlushSize  int
	Now        func() time.Time
}

// Result summarises one plan execution.
type Result struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Total      int
	Succeeded  int
	Failed     int
	ByStage    map[domain.Stage]int
	Aggregates []*domain.ChannelAggregate
}

// NewRunner creates a batch runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	flush := opts.FlushSize
	if flush <= 0 {
		flush = DefaultFlushSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		generator:  opts.Generator,
		events:     opts.Events,
		aggregator: opts.Aggregator,
		publisher:  opts.Publisher,
		recorder:   opts.Recorder,
		logger:     logger.Named("batch"),
		flushSize:  flush,
		now:        now,
	}
}

// Run executes plan.
// Steps:
//  1. Validate the plan and derive the run_id
//  2. Generate every requested event; failures become FAILED records
//  3. Publish each record and persist in InsertBulk chunks
//  4. Aggregate the run (if an aggregator is configured)
//
// A failure that is not tied to a generation stage (for example a registry
// that cannot be loaded) aborts the run. Cancelling ctx stops between events;
// records generated so far are persisted.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	started := r.now()
	res := &Result{
		RunID:     idhash.ComputeRunID(plan.Name, started.UnixMilli(), plan.Seed),
		StartedAt: started,
		ByStage:   make(map[domain.Stage]int),
	}
	log := r.logger.With(zap.String("run_id", res.RunID), zap.String("plan", plan.Name))
	log.Info("starting run", zap.Int("requests", plan.TotalEvents()), zap.Int("setups", len(plan.Runs)))

	genErr := r.generate(ctx, plan, res, log)
	res.Duration = r.now().Sub(started)
	r.record("generate", genErr, res.Duration)
	if genErr != nil {
		return res, genErr
	}

	log.Info("generation complete",
		zap.Int("total", res.Total), zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed), zap.Duration("duration", res.Duration))

	if r.aggregator == nil {
		return res, nil
	}

	aggStart := r.now()
	aggs, err := r.aggregator.ComputeAndStore(ctx, res.RunID)
	r.record("aggregate", err, r.now().Sub(aggStart))
	if err != nil {
		return res, fmt.Errorf("aggregate run %s: %w", res.RunID, err)
	}
	res.Aggregates = aggs
	if r.recorder != nil {
		r.recorder.RecordAggregates(len(aggs))
	}
	log.Info("aggregates stored", zap.Int("aggregates", len(aggs)))
	return res, nil
}

func (r *Runner) generate(ctx context.Context, plan *Plan, res *Result, log *zap.Logger) error {
	buf := make([]*domain.EventRecord, 0, r.flushSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := r.events.InsertBulk(ctx, buf); err != nil {
			return fmt.Errorf("persist %d records: %w", len(buf), err)
		}
		buf = buf[:0]
		return nil
	}

	seq := 0
	for _, run := range plan.Runs {
		for i := 0; i < run.Count; i++ {
			if err := ctx.Err(); err != nil {
				ctx = context.WithoutCancel(ctx)
				if ferr := flush(); ferr != nil {
					return errors.Join(err, ferr)
				}
				return err
			}

			req := orchestrator.Request{
				ID1:        run.ID1,
				ID2:        run.ID2,
				BeamEnergy: run.Energy,
				Seed:       EventSeed(plan.Seed, seq),
				RunID:      res.RunID,
				Sequence:   seq,
			}
			seq++

			rec, err := r.generateOne(ctx, req)
			if err != nil {
				return err
			}

			res.Total++
			if rec.Status == domain.StatusOK {
				res.Succeeded++
			} else {
				res.Failed++
				res.ByStage[rec.FailureStage]++
				log.Debug("event failed",
					zap.Int("sequence", req.Sequence),
					zap.String("stage", string(rec.FailureStage)))
			}

			r.publish(ctx, rec, log)

			buf = append(buf, rec)
			if len(buf) >= r.flushSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (r *Runner) generateOne(ctx context.Context, req orchestrator.Request) (*domain.EventRecord, error) {
	ev, err := r.generator.GenerateEvent(ctx, req)
	createdAt := r.now().UnixMilli()
	if err == nil {
		return domain.RecordFromEvent(req.RunID, ev, createdAt), nil
	}
	if orchestrator.StageOf(err) == "" {
		return nil, fmt.Errorf("generate event %d: %w", req.Sequence, err)
	}
	return FailedRecord(req, err, createdAt), nil
}

// FailedRecord builds the FAILED record of a request rejected with a stage error.
func FailedRecord(req orchestrator.Request, err error, createdAtMs int64) *domain.EventRecord {
	rec := &domain.EventRecord{
		EventID:      idhash.ComputeEventID(req.RunID, req.ID1, req.ID2, req.BeamEnergy, req.Seed, req.Sequence),
		RunID:        req.RunID,
		ID1:          req.ID1,
		ID2:          req.ID2,
		BeamEnergy:   req.BeamEnergy,
		RNGSeed:      req.Seed,
		Status:       domain.StatusFailed,
		FailureStage: orchestrator.StageOf(err),
		Products:     []int{},
		CreatedAtMs:  createdAtMs,
	}

	var se *orchestrator.StageError
	if errors.As(err, &se) {
		rec.SqrtS = se.SqrtS
		rec.Channel = se.Channel
	}
	if rec.Channel == "" {
		rec.Channel = domain.ChannelUnknown
	}

	var exhausted *generator.ExhaustedError
	if errors.As(err, &exhausted) {
		rec.Attempts = exhausted.Attempts
	}
	return rec
}

func (r *Runner) publish(ctx context.Context, rec *domain.EventRecord, log *zap.Logger) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.Publish(ctx, rec)
	switch {
	case err == nil:
	case errors.Is(err, feed.ErrQueueFull):
		log.Debug("feed queue full, record not broadcast", zap.String("event_id", rec.EventID))
	default:
		log.Warn("publish failed", zap.String("event_id", rec.EventID), zap.Error(err))
	}
}

func (r *Runner) record(phase string, err error, d time.Duration) {
	if r.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.recorder.RecordBatchRun(phase, status, d.Seconds())
}
