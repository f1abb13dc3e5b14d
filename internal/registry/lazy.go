package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"collider-lab/internal/catalog"
)

// Lazy builds a Registry on first use. A failed build is retried on the next call.
// Once built, Get and Loaded read it without locking.
type Lazy struct {
	provider catalog.Provider
	logger   *zap.Logger

	mu  sync.Mutex // serializes builds
	reg atomic.Pointer[Registry]
}

// NewLazy creates a lazily built registry over provider.
func NewLazy(provider catalog.Provider, logger *zap.Logger) *Lazy {
	return &Lazy{provider: provider, logger: logger}
}

// Get returns the registry, building it if needed.
func (l *Lazy) Get(ctx context.Context) (*Registry, error) {
	if reg := l.reg.Load(); reg != nil {
		return reg, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if reg := l.reg.Load(); reg != nil {
		return reg, nil
	}
	reg, err := Build(ctx, l.provider, l.logger)
	if err != nil {
		return nil, err
	}
	l.reg.Store(reg)
	return reg, nil
}

// Loaded reports whether the registry has been built.
func (l *Lazy) Loaded() bool {
	return l.reg.Load() != nil
}

// Preloaded wraps an already built registry.
func Preloaded(reg *Registry) *Lazy {
	l := &Lazy{}
	l.reg.Store(reg)
	return l
}
