// Package main runs a YAML generation plan end to end.
// Executes: generation → persistence → aggregation → reporting
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"collider-lab/internal/app"
	"collider-lab/internal/batch"
	"collider-lab/internal/catalog"
	"collider-lab/internal/config"
	"collider-lab/internal/logging"
	"collider-lab/internal/metrics"
	"collider-lab/internal/observability"
	"collider-lab/internal/reporting"
	"collider-lab/internal/verification"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags
	fs := pflag.NewFlagSet("batch", pflag.ExitOnError)
	cfg.BindFlags(fs)
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Output directory for reports")
	planPath := fs.String("plan", "", "YAML plan file (required)")
	skipReport := fs.Bool("no-report", false, "Skip writing Markdown/CSV reports")
	flushSize := fs.Int("flush-size", batch.DefaultFlushSize, "Records written per bulk insert")
	verify := fs.Bool("verify", false, "Replay every stored event and check it reproduces")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	if err := execute(cfg, logger, *planPath, *flushSize, *verify, !*skipReport); err != nil {
		logger.Error("batch failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func execute(cfg *config.Config, logger *zap.Logger, planPath string, flushSize int, verify, writeReport bool) error {
	// Validate flags
	if planPath == "" {
		return fmt.Errorf("--plan is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	plan, err := batch.LoadPlan(planPath)
	if err != nil {
		return err
	}
	if plan.Seed == 0 {
		plan.Seed = cfg.Seed
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	m := observability.DefaultMetrics
	stores, closeStores, err := app.OpenStores(ctx, cfg, m, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	orch := app.NewOrchestrator(cfg, provider, m, logger)
	reg, err := orch.Registry(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	m.SetRegistryStats(reg.Stats())

	runner := batch.NewRunner(batch.Options{
		Generator:  orch,
		Events:     stores.Events,
		Aggregator: metrics.NewAggregator(stores.Events, stores.Aggregates),
		Recorder:   m,
		Logger:     logger,
		FlushSize:  flushSize,
	})

	res, err := runner.Run(ctx, plan)
	if err != nil {
		return err
	}

	fmt.Printf("=== Run %s ===\n", res.RunID)
	fmt.Printf("Events: %d (ok %d, failed %d) in %v\n", res.Total, res.Succeeded, res.Failed, res.Duration)
	for stage, n := range res.ByStage {
		fmt.Printf("  failed at %s: %d\n", stage, n)
	}

	if verify {
		vr, err := verification.NewReplayVerifier(stores.Events, orch).VerifyRun(ctx, res.RunID)
		if err != nil {
			return fmt.Errorf("verify run: %w", err)
		}
		fmt.Printf("Replay: %d matched, %d divergent, %d skipped\n",
			vr.MatchedEvents, vr.DivergentEvents, vr.SkippedEvents)
		if vr.DivergentEvents > 0 {
			for _, r := range vr.Results {
				if !r.Match && !r.Skipped {
					logger.Warn("replay diverged", zap.String("event_id", r.EventID), zap.Any("divergences", r.Divergences))
				}
			}
			return fmt.Errorf("%d events did not reproduce", vr.DivergentEvents)
		}
	}

	if !writeReport {
		return nil
	}

	gen := reporting.NewGenerator(stores.Events, stores.Aggregates).WithNames(namesFrom(ctx, provider))
	report, err := gen.Generate(ctx, res.RunID)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	paths, err := reporting.WriteFiles(cfg.OutputDir, report)
	if err != nil {
		return err
	}
	m.RecordReport()

	fmt.Println("Reports written:")
	for _, p := range paths {
		fmt.Printf("  - %s\n", p)
	}
	return nil
}

// namesFrom resolves display names through the catalog.
func namesFrom(ctx context.Context, provider catalog.Provider) reporting.NameFunc {
	return func(id int) string {
		p, err := provider.GetByID(ctx, id)
		if err != nil {
			return ""
		}
		return p.Name
	}
}
