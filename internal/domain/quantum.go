package domain

// QuantumKey names one conserved quantity tracked by the conservation check.
type QuantumKey string

const (
	KeyCharge      QuantumKey = "charge"
	KeyBaryon      QuantumKey = "baryon"
	KeyStrangeness QuantumKey = "strangeness"
	KeyCharm       QuantumKey = "charm"
	KeyBottom      QuantumKey = "bottom"
	KeyLeptonE     QuantumKey = "L_e"
	KeyLeptonMu    QuantumKey = "L_mu"
	KeyLeptonTau   QuantumKey = "L_tau"
)

// HadronicKeys are tracked for every interaction.
var HadronicKeys = []QuantumKey{KeyCharge, KeyBaryon, KeyStrangeness, KeyCharm, KeyBottom}

// LeptonKeys are tracked only when a lepton participates.
var LeptonKeys = []QuantumKey{KeyLeptonE, KeyLeptonMu, KeyLeptonTau}

// QuantumNumbers is the fixed-shape quantum number vector of a particle or state.
type QuantumNumbers struct {
	Charge      float64
	Baryon      float64
	Strangeness float64
	Charm       float64
	Bottom      float64
	LeptonE     float64
	LeptonMu    float64
	LeptonTau   float64
}

// Add returns the component-wise sum of q and o.
func (q QuantumNumbers) Add(o QuantumNumbers) QuantumNumbers {
	return QuantumNumbers{
		Charge:      q.Charge + o.Charge,
		Baryon:      q.Baryon + o.Baryon,
		Strangeness: q.Strangeness + o.Strangeness,
		Charm:       q.Charm + o.Charm,
		Bottom:      q.Bottom + o.Bottom,
		LeptonE:     q.LeptonE + o.LeptonE,
		LeptonMu:    q.LeptonMu + o.LeptonMu,
		LeptonTau:   q.LeptonTau + o.LeptonTau,
	}
}

// Get returns the value stored under key. Unknown keys read as 0.
func (q QuantumNumbers) Get(key QuantumKey) float64 {
	switch key {
	case KeyCharge:
		return q.Charge
	case KeyBaryon:
		return q.Baryon
	case KeyStrangeness:
		return q.Strangeness
	case KeyCharm:
		return q.Charm
	case KeyBottom:
		return q.Bottom
	case KeyLeptonE:
		return q.LeptonE
	case KeyLeptonMu:
		return q.LeptonMu
	case KeyLeptonTau:
		return q.LeptonTau
	default:
		return 0
	}
}

// InitialState is the quantum-number snapshot a final state must reproduce.
// Only Keys are checked.
type InitialState struct {
	Numbers QuantumNumbers
	Keys    []QuantumKey
}

// Tracks reports whether key is part of the snapshot.
func (s InitialState) Tracks(key QuantumKey) bool {
	for _, k := range s.Keys {
		if k == key {
			return true
		}
	}
	return false
}
