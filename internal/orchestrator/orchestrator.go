// Package orchestrator generates one collision event end to end.
// Flow: resolve → sqrt(s) → initial state → classify → weight gate → generator
package orchestrator

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"collider-lab/internal/conservation"
	"collider-lab/internal/domain"
	"collider-lab/internal/generator"
	"collider-lab/internal/idhash"
	"collider-lab/internal/interaction"
	"collider-lab/internal/registry"
	"collider-lab/internal/weight"
)

// MinS is the floor applied to s before taking the square root, GeV^2.
const MinS = 0.1

// DefaultMaxAttempts caps every per-channel attempt ceiling.
const DefaultMaxAttempts = 100000

// pcgStream is the second PCG word; the first word is the event seed.
const pcgStream = 0x9e3779b97f4a7c15

var (
	// ErrUnknownParticle is returned when an incoming code is not in the registry.
	ErrUnknownParticle = errors.New("unknown particle")

	// ErrInvalidBeamEnergy is returned for non-positive or non-finite beam energies.
	ErrInvalidBeamEnergy = errors.New("beam energy must be positive")
)

// StageError wraps a generation failure with the stage that produced it.
type StageError struct {
	Stage   domain.Stage
	Channel domain.Channel
	SqrtS   float64
	Err     error
}

func (e *StageError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (%s, sqrt_s=%.3f GeV): %v", e.Stage, e.Channel, e.SqrtS, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failure stage carried by err, or "" if none.
func StageOf(err error) domain.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Recorder receives per-event outcomes. Implemented by observability.Metrics.
type Recorder interface {
	RecordEvent(channel domain.Channel, stage domain.Stage, attempts int, seconds float64)
}

// Request is one generation request.
type Request struct {
	ID1        int
	ID2        int
	BeamEnergy float64 // GeV
	Seed       uint64  // 0 draws a random seed
	RunID      string
	Sequence   int
}

// Orchestrator coordinates one generation call.
type Orchestrator struct {
	registry   *registry.Lazy
	generators generator.Options
	recorder   Recorder
	logger     *zap.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Registry *registry.Lazy

	// Attempt ceilings; zero values use the generator defaults
	Generators  generator.Options
	MaxAttempts int

	// Optional
	Recorder Recorder
	Logger   *zap.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		registry:   opts.Registry,
		generators: capAttempts(opts.Generators, maxAttempts),
		recorder:   opts.Recorder,
		logger:     logger.Named("orchestrator"),
	}
}

func capAttempts(o generator.Options, limit int) generator.Options {
	d := generator.DefaultOptions()
	pick := func(v, def int) int {
		if v <= 0 {
			v = def
		}
		return min(v, limit)
	}
	return generator.Options{
		HadronHadronAttempts: pick(o.HadronHadronAttempts, d.HadronHadronAttempts),
		HadronLeptonAttempts: pick(o.HadronLeptonAttempts, d.HadronLeptonAttempts),
		LeptonLeptonAttempts: pick(o.LeptonLeptonAttempts, d.LeptonLeptonAttempts),
	}
}

// Registry returns the registry, loading it on first use.
func (o *Orchestrator) Registry(ctx context.Context) (*registry.Registry, error) {
	return o.registry.Get(ctx)
}

// RegistryLoaded reports whether the registry has been built.
func (o *Orchestrator) RegistryLoaded() bool {
	return o.registry.Loaded()
}

// SqrtS returns the invariant energy used by the generator:
// sqrt(max(0.1, m1^2 + m2^2 + 2*m2*E)). Only m2 enters the cross term.
func SqrtS(m1, m2, beamEnergy float64) float64 {
	s := m1*m1 + m2*m2 + 2*m2*beamEnergy
	return math.Sqrt(math.Max(MinS, s))
}

// GenerateEvent runs one generation request.
// Generation failures are returned as *StageError. A registry that cannot be
// loaded is returned as a plain wrapped error, for which StageOf reports "".
func (o *Orchestrator) GenerateEvent(ctx context.Context, req Request) (*domain.Event, error) {
	start := time.Now()
	ev, err := o.generate(ctx, req)

	if o.recorder != nil {
		var (
			ch       domain.Channel
			attempts int
		)
		var se *StageError
		switch {
		case ev != nil:
			ch, attempts = ev.Diagnostics.InteractionType, ev.Attempts
		case errors.As(err, &se):
			ch = se.Channel
			var exhausted *generator.ExhaustedError
			if errors.As(err, &exhausted) {
				attempts = exhausted.Attempts
			}
		}
		o.recorder.RecordEvent(ch, StageOf(err), attempts, time.Since(start).Seconds())
	}
	return ev, err
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (*domain.Event, error) {
	if req.BeamEnergy <= 0 || math.IsNaN(req.BeamEnergy) || math.IsInf(req.BeamEnergy, 0) {
		return nil, &StageError{Stage: domain.StageInput, Err: fmt.Errorf("%w: %v", ErrInvalidBeamEnergy, req.BeamEnergy)}
	}

	reg, err := o.registry.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	a, ok := reg.Particle(req.ID1)
	if !ok {
		return nil, &StageError{Stage: domain.StageInput, Err: fmt.Errorf("%w: %d", ErrUnknownParticle, req.ID1)}
	}
	b, ok := reg.Particle(req.ID2)
	if !ok {
		return nil, &StageError{Stage: domain.StageInput, Err: fmt.Errorf("%w: %d", ErrUnknownParticle, req.ID2)}
	}

	sqrtS := SqrtS(a.Mass, b.Mass, req.BeamEnergy)
	initial := conservation.NewInitialState(a, b, reg.Numbers(a.ID), reg.Numbers(b.ID))
	ch := interaction.Classify(a.Type, b.Type)

	o.logger.Debug("generating event",
		zap.Int("id1", a.ID), zap.Int("id2", b.ID),
		zap.Float64("sqrt_s", sqrtS), zap.String("channel", ch.String()))

	fail := func(stage domain.Stage, err error) (*domain.Event, error) {
		o.logger.Info("generation failed",
			zap.Int("id1", a.ID), zap.Int("id2", b.ID),
			zap.String("stage", string(stage)), zap.String("channel", ch.String()),
			zap.Float64("sqrt_s", sqrtS), zap.Error(err))
		return nil, &StageError{Stage: stage, Channel: ch, SqrtS: sqrtS, Err: err}
	}

	if !ch.HasGenerator() {
		if ch == domain.ChannelUnknown {
			return fail(domain.StageClassify, generator.ErrNoChannel)
		}
		return fail(domain.StageClassify, fmt.Errorf("%w: %s", generator.ErrUnsupportedChannel, ch))
	}

	if len(weight.Reachable(reg.Pool(), sqrtS, ch)) == 0 {
		return fail(domain.StageWeights, weight.ErrNoParticlesAvailable)
	}

	seed := req.Seed
	if seed == 0 {
		seed = randomSeed()
	}
	src := rand.NewPCG(seed, pcgStream)

	in := &generator.Input{First: a, Second: b, SqrtS: sqrtS, Initial: initial, Src: src}
	set := generator.NewSet(reg, o.generators)

	var out *generator.Outcome
	switch ch {
	case domain.ChannelHadronHadron:
		out, err = set.HadronHadron.Generate(in)
	case domain.ChannelHadronLepton:
		out, err = set.HadronLepton.Generate(in)
	case domain.ChannelLeptonLepton:
		out, err = set.LeptonLepton.Generate(in)
	case domain.ChannelHadronBoson, domain.ChannelLeptonBoson, domain.ChannelUnknown:
		err = generator.ErrUnsupportedChannel
	}
	if err != nil {
		return fail(stageFor(err), err)
	}

	ev := &domain.Event{
		EventID:     idhash.ComputeEventID(req.RunID, a.ID, b.ID, req.BeamEnergy, seed, req.Sequence),
		Incoming:    [2]int{a.ID, b.ID},
		BeamEnergy:  req.BeamEnergy,
		Products:    out.IDs(),
		Seed:        out.SeedPair(),
		Diagnostics: domain.NewDiagnostics(sqrtS, initial.Numbers, ch),
		Attempts:    out.Attempts,
		RNGSeed:     seed,
	}

	o.logger.Debug("event generated",
		zap.String("event_id", ev.EventID),
		zap.Ints("products", ev.Products),
		zap.Int("attempts", ev.Attempts))
	return ev, nil
}

func stageFor(err error) domain.Stage {
	switch {
	case errors.Is(err, generator.ErrUnsupportedChannel):
		return domain.StageClassify
	case errors.Is(err, weight.ErrNoParticlesAvailable):
		return domain.StageWeights
	case errors.Is(err, generator.ErrNoResonance):
		return domain.StageResonance
	default:
		return domain.StageSampling
	}
}

// randomSeed returns a non-zero seed from crypto/rand.
func randomSeed() uint64 {
	var b [8]byte
	for {
		_, _ = crand.Read(b[:])
		if s := binary.LittleEndian.Uint64(b[:]); s != 0 {
			return s
		}
	}
}
