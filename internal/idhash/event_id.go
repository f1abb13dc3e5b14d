package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(run_id|id1|id2|beam_energy|rng_seed|sequence)
// Returns the base58-encoded hash.
func ComputeEventID(
	runID string,
	id1, id2 int,
	beamEnergy float64,
	rngSeed uint64,
	sequence int,
) string {
	data := fmt.Sprintf("%s|%d|%d|%s|%d|%d",
		runID,
		id1,
		id2,
		strconv.FormatFloat(beamEnergy, 'g', -1, 64),
		rngSeed,
		sequence,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
