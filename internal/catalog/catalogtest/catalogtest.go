// Package catalogtest provides particle catalogs for tests.
package catalogtest

import (
	"testing"

	"collider-lab/internal/catalog"
)

// Embedded returns the built-in catalog or fails the test.
func Embedded(t testing.TB) *catalog.Memory {
	t.Helper()
	m, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}
	return m
}

// Build returns a catalog built from entries or fails the test.
func Build(t testing.TB, entries ...catalog.Entry) *catalog.Memory {
	t.Helper()
	m, err := catalog.Build(entries)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return m
}

// Spin returns a pointer for Entry.Spin.
func Spin(j float64) *float64 {
	return &j
}

// Hadron returns an entry typed as hadron, quark content derived from the code.
func Hadron(name string, id int, mass, charge float64) catalog.Entry {
	return catalog.Entry{Name: name, MCID: id, Mass: mass, Charge: charge, Type: "hadron"}
}

// Lepton returns a lepton entry.
func Lepton(name string, id int, mass, charge float64) catalog.Entry {
	return catalog.Entry{Name: name, MCID: id, Mass: mass, Charge: charge, Spin: Spin(0.5), Type: "lepton"}
}
