// Package batch runs generation plans and persists their event records.
package batch

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"collider-lab/internal/domain"
)

// Plan errors
var (
	ErrEmptyPlan   = errors.New("plan has no runs")
	ErrInvalidPlan = errors.New("invalid plan")
)

// Plan is a list of beam set-ups, each repeated Count times.
type Plan struct {
	Name string `yaml:"name"`
	Seed uint64 `yaml:"seed"` // 0 draws a random seed per event
	Runs []Run  `yaml:"runs"`
}

// Run is one beam set-up of a plan.
type Run struct {
	ID1    int     `yaml:"id1"`
	ID2    int     `yaml:"id2"`
	Energy float64 `yaml:"energy"` // GeV
	Count  int     `yaml:"count"`
}

// Setup returns the beam set-up of the run.
func (r Run) Setup() domain.BeamSetup {
	return domain.BeamSetup{ID1: r.ID1, ID2: r.ID2, BeamEnergy: r.Energy}
}

// TotalEvents returns the number of generation requests in the plan.
func (p *Plan) TotalEvents() int {
	n := 0
	for _, r := range p.Runs {
		n += r.Count
	}
	return n
}

// Validate checks that every run is executable.
// Unknown particle codes are not checked here; they surface as input-stage failures.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if len(p.Runs) == 0 {
		return ErrEmptyPlan
	}
	for i, r := range p.Runs {
		if r.ID1 == 0 || r.ID2 == 0 {
			return fmt.Errorf("%w: run %d: particle codes are required", ErrInvalidPlan, i)
		}
		if r.Energy <= 0 || math.IsNaN(r.Energy) || math.IsInf(r.Energy, 0) {
			return fmt.Errorf("%w: run %d: energy must be positive, got %v", ErrInvalidPlan, i, r.Energy)
		}
		if r.Count <= 0 {
			return fmt.Errorf("%w: run %d: count must be positive, got %d", ErrInvalidPlan, i, r.Count)
		}
	}
	return nil
}

// DecodePlan reads and validates a YAML plan.
func DecodePlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPlan
		}
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPlan reads a YAML plan from disk.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	p, err := DecodePlan(f)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", path, err)
	}
	return p, nil
}
