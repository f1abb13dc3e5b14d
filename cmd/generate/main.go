// Command generate produces collision events for one incoming pair.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"collider-lab/internal/app"
	"collider-lab/internal/config"
	"collider-lab/internal/domain"
	"collider-lab/internal/logging"
	"collider-lab/internal/orchestrator"
)

// Exit codes
const (
	exitOK      = 0
	exitSetup   = 1
	exitFailure = 2 // at least one event failed
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitSetup
	}

	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	cfg.BindFlags(fs)

	// Request
	id1 := fs.Int("id1", 0, "Monte-Carlo code of the first incoming particle (required)")
	id2 := fs.Int("id2", 0, "Monte-Carlo code of the second incoming particle (required)")
	energy := fs.Float64("energy", 0, "Beam energy in GeV (required)")
	count := fs.Int("count", 1, "Number of events to generate")

	// Output
	outputJSON := fs.Bool("json", false, "Output the three-part web payload as JSON")

	_ = fs.Parse(args)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logging.WithOutput("stderr"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return exitSetup
	}
	defer logger.Sync()
	logger = logger.Named("generate")

	// Validate required flags
	switch {
	case *id1 == 0 || *id2 == 0:
		logger.Error("--id1 and --id2 are required")
		return exitSetup
	case *energy <= 0:
		logger.Error("--energy must be positive")
		return exitSetup
	case *count <= 0:
		logger.Error("--count must be positive")
		return exitSetup
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitSetup
	}

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, closeCatalog, err := app.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Error("open catalog", zap.Error(err))
		return exitSetup
	}
	defer closeCatalog()

	orch := app.NewOrchestrator(cfg, provider, nil, logger)

	code := exitOK
	for i := 0; i < *count && ctx.Err() == nil; i++ {
		seed := cfg.Seed
		if seed != 0 {
			seed += uint64(i)
		}

		ev, err := orch.GenerateEvent(ctx, orchestrator.Request{
			ID1:        *id1,
			ID2:        *id2,
			BeamEnergy: *energy,
			Seed:       seed,
			Sequence:   i,
		})
		if err != nil {
			stage := orchestrator.StageOf(err)
			if stage == "" {
				logger.Error("generation aborted", zap.Error(err))
				return exitSetup
			}
			fmt.Fprintf(os.Stderr, "event %d failed [%s]: %v\n", i, stage, err)
			code = exitFailure
			continue
		}

		if *outputJSON {
			out, err := json.Marshal(ev.Legacy())
			if err != nil {
				logger.Error("encode event", zap.Error(err))
				return exitSetup
			}
			fmt.Println(string(out))
			continue
		}
		printEvent(ev)
	}
	return code
}

// printEvent writes a human-readable event summary to stdout.
func printEvent(ev *domain.Event) {
	d := ev.Diagnostics
	products := make([]string, len(ev.Products))
	for i, id := range ev.Products {
		products[i] = fmt.Sprintf("%d", id)
	}

	fmt.Printf("Event %s\n", ev.EventID)
	fmt.Printf("  incoming:    %d + %d @ %g GeV\n", ev.Incoming[0], ev.Incoming[1], ev.BeamEnergy)
	fmt.Printf("  channel:     %s\n", d.InteractionType)
	fmt.Printf("  sqrt(s):     %.4f GeV\n", d.Mass)
	fmt.Printf("  products:    [%s]\n", strings.Join(products, ", "))
	fmt.Printf("  seed pair:   %d, %d\n", ev.Seed.ID1, ev.Seed.ID2)
	fmt.Printf("  charge:      %g  baryon: %g  S,B,C: %g,%g,%g\n",
		d.Charge, d.BaryonNum, d.SBC[0], d.SBC[1], d.SBC[2])
	fmt.Printf("  leptons:     e=%g mu=%g tau=%g\n", d.LeptonE, d.LeptonMu, d.LeptonTau)
	fmt.Printf("  attempts:    %d\n", ev.Attempts)
	fmt.Printf("  rng seed:    %d\n", ev.RNGSeed)
}
