package app

import (
	"go.uber.org/zap"

	"collider-lab/internal/catalog"
	"collider-lab/internal/config"
	"collider-lab/internal/observability"
	"collider-lab/internal/orchestrator"
	"collider-lab/internal/registry"
)

// NewOrchestrator creates an orchestrator over a lazily built registry.
// m may be nil.
func NewOrchestrator(cfg *config.Config, provider catalog.Provider, m *observability.Metrics, logger *zap.Logger) *orchestrator.Orchestrator {
	opts := orchestrator.Options{
		Registry:    registry.NewLazy(provider, logger),
		Generators:  cfg.GeneratorOptions(),
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
	}
	if m != nil {
		opts.Recorder = m
	}
	return orchestrator.New(opts)
}
