// Package quantum derives conserved quantum numbers from particle records.
package quantum

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"collider-lab/internal/catalog"
	"collider-lab/internal/domain"
	"collider-lab/internal/pdgid"
)

// Engine computes quantum number vectors and memoizes them per code.
// Lookup failures never surface: the affected numbers default to 0.
type Engine struct {
	provider catalog.Provider
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[int]domain.QuantumNumbers
}

// NewEngine creates an engine backed by provider.
func NewEngine(provider catalog.Provider, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		provider: provider,
		logger:   logger.Named("quantum"),
		cache:    make(map[int]domain.QuantumNumbers),
	}
}

// Numbers returns the quantum number vector of id.
// Repeated calls return the cached vector.
func (e *Engine) Numbers(ctx context.Context, id int) domain.QuantumNumbers {
	e.mu.RLock()
	q, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return q
	}

	q = e.compute(ctx, id)

	e.mu.Lock()
	if cached, exists := e.cache[id]; exists {
		q = cached
	} else {
		e.cache[id] = q
	}
	e.mu.Unlock()
	return q
}

// Len returns the number of memoized codes.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *Engine) compute(ctx context.Context, id int) domain.QuantumNumbers {
	l := pdgid.Leptons(id)
	q := domain.QuantumNumbers{LeptonE: l.E, LeptonMu: l.Mu, LeptonTau: l.Tau}

	p, err := e.provider.GetByID(ctx, id)
	if err != nil {
		e.logger.Debug("lookup failed, quantum numbers default to zero",
			zap.Int("id", id), zap.Error(err))
		return q
	}

	q.Charge = p.Charge
	q.Baryon, q.Strangeness, q.Charm, q.Bottom = FromQuarks(p.Quarks)
	return q
}

// Vector returns the quantum numbers of a record without consulting a provider.
func Vector(p *domain.Particle) domain.QuantumNumbers {
	l := pdgid.Leptons(p.ID)
	q := domain.QuantumNumbers{
		Charge:    p.Charge,
		LeptonE:   l.E,
		LeptonMu:  l.Mu,
		LeptonTau: l.Tau,
	}
	q.Baryon, q.Strangeness, q.Charm, q.Bottom = FromQuarks(p.Quarks)
	return q
}

// FromQuarks derives baryon number and flavor numbers from quark content.
// Baryon number is (lowercase - uppercase) / 3. Strangeness counts an s quark
// as +1 and an anti-s as -1; charm and bottom count a quark as -1 and an
// antiquark as +1. Malformed content yields zeros.
func FromQuarks(quarks string) (baryon, strangeness, charm, bottom float64) {
	var net float64
	for i := 0; i < len(quarks); i++ {
		c := quarks[i]
		switch c {
		case 'u', 'd', 's', 'c', 'b', 't':
			net++
		case 'U', 'D', 'S', 'C', 'B', 'T':
			net--
		default:
			return 0, 0, 0, 0
		}

		switch c {
		case 's':
			strangeness++
		case 'S':
			strangeness--
		case 'c':
			charm--
		case 'C':
			charm++
		case 'b':
			bottom--
		case 'B':
			bottom++
		}
	}
	return net / 3, strangeness, charm, bottom
}
