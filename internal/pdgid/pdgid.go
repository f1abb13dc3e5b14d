// Package pdgid decodes Monte-Carlo particle numbering codes.
//
// A code is read as ±n nr nL nq1 nq2 nq3 nJ. Only the quark digits and the
// spin digit are interpreted here; radial and orbital excitations share the
// quark content of their ground state.
package pdgid

import (
	"errors"
	"strings"

	"collider-lab/internal/domain"
)

// ErrNoQuarkContent is returned for codes that carry no valence quarks
// (leptons, gauge bosons, diquarks, nuclei, unknown codes).
var ErrNoQuarkContent = errors.New("no quark content")

// flavor letters indexed by quark digit 1..6.
const flavors = " duscbt"

// gaugeBosons holds the codes classified as gauge bosons.
var gaugeBosons = map[int]string{
	21:  "g",
	22:  "gamma",
	23:  "Z0",
	24:  "W+",
	-24: "W-",
	25:  "H0",
}

// LeptonNumbers holds per-generation lepton numbers.
type LeptonNumbers struct {
	E   float64
	Mu  float64
	Tau float64
}

// leptonTable is keyed by code. The sign of the code gives the sign of the number.
var leptonTable = map[int]LeptonNumbers{
	11: {E: 1}, -11: {E: -1},
	12: {E: 1}, -12: {E: -1},
	13: {Mu: 1}, -13: {Mu: -1},
	14: {Mu: 1}, -14: {Mu: -1},
	15: {Tau: 1}, -15: {Tau: -1},
	16: {Tau: 1}, -16: {Tau: -1},
}

func abs(id int) int {
	if id < 0 {
		return -id
	}
	return id
}

func digit(a, pos int) int {
	for i := 0; i < pos; i++ {
		a /= 10
	}
	return a % 10
}

// IsLepton reports whether id is a charged lepton or neutrino.
func IsLepton(id int) bool {
	_, ok := leptonTable[id]
	return ok
}

// IsGaugeBoson reports whether id is in the gauge boson table.
func IsGaugeBoson(id int) bool {
	_, ok := gaugeBosons[id]
	return ok
}

// Leptons returns the lepton numbers of id, zero for non-leptons.
func Leptons(id int) LeptonNumbers {
	return leptonTable[id]
}

// LeptonGeneration returns 1, 2 or 3 for the electron, muon and tau families
// (charged lepton or neutrino, either sign) and 0 otherwise.
func LeptonGeneration(id int) int {
	a := abs(id)
	if a < 11 || a > 16 {
		return 0
	}
	return (a-11)/2 + 1
}

// Quarks returns the valence quark content of id.
// Baryons yield three letters ordered nq1 nq2 nq3, lowercase for particles
// and uppercase for antibaryons. Mesons yield quark then antiquark.
func Quarks(id int) (string, error) {
	a := abs(id)
	if a < 100 || a >= 1000000000 {
		return "", ErrNoQuarkContent
	}

	nq1 := digit(a, 3)
	nq2 := digit(a, 2)
	nq3 := digit(a, 1)
	if nq2 == 0 || nq3 == 0 || nq2 > 6 || nq3 > 6 || nq1 > 6 {
		return "", ErrNoQuarkContent
	}
	if nq1 != 0 {
		q := string([]byte{flavors[nq1], flavors[nq2], flavors[nq3]})
		if id < 0 {
			return strings.ToUpper(q), nil
		}
		return q, nil
	}

	// Meson. For a positive code an up-type nq2 is the quark, a down-type
	// nq2 is the antiquark.
	var quark, anti int
	switch {
	case nq2 == nq3:
		quark, anti = nq2, nq3
	case nq2%2 == 0:
		quark, anti = nq2, nq3
	default:
		quark, anti = nq3, nq2
	}
	if id < 0 {
		quark, anti = anti, quark
	}
	return string([]byte{flavors[quark], upper(flavors[anti])}), nil
}

func upper(b byte) byte {
	return b - 'a' + 'A'
}

// TypeOf returns the type tag of id.
func TypeOf(id int) domain.ParticleType {
	if IsLepton(id) {
		return domain.TypeLepton
	}
	if IsGaugeBoson(id) {
		return domain.TypeGaugeBoson
	}
	q, err := Quarks(id)
	if err != nil {
		return domain.TypeUnknown
	}
	return TypeFromQuarks(q)
}

// TypeFromQuarks classifies by quark count: three letters make a baryon,
// two a meson.
func TypeFromQuarks(quarks string) domain.ParticleType {
	switch len(quarks) {
	case 3:
		return domain.TypeBaryon
	case 2:
		return domain.TypeMeson
	default:
		return domain.TypeUnknown
	}
}

// Spin returns J for hadron codes from the nJ digit, where nJ = 2J+1.
func Spin(id int) (float64, bool) {
	if _, err := Quarks(id); err != nil {
		return 0, false
	}
	nJ := digit(abs(id), 0)
	if nJ == 0 {
		return 0, false
	}
	return float64(nJ-1) / 2, true
}

// IsSelfConjugate reports whether id is its own antiparticle.
func IsSelfConjugate(id int) bool {
	switch id {
	case 21, 22, 23, 25:
		return true
	}
	if id <= 0 {
		return false
	}
	q, err := Quarks(id)
	if err != nil || len(q) != 2 {
		return false
	}
	return strings.EqualFold(q[:1], q[1:])
}

// Conjugate returns the code of the antiparticle of id.
func Conjugate(id int) int {
	if IsSelfConjugate(id) {
		return id
	}
	return -id
}

// ConjugateQuarks swaps the case of every letter.
func ConjugateQuarks(quarks string) string {
	b := []byte(quarks)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z':
			b[i] = c - 'A' + 'a'
		}
	}
	// mesons keep quark-then-antiquark order
	if len(b) == 2 {
		b[0], b[1] = b[1], b[0]
	}
	return string(b)
}
