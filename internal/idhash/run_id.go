package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(plan_name|started_at_ms|plan_seed)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(
	planName string,
	startedAtMs int64,
	planSeed uint64,
) string {
	data := fmt.Sprintf("%s|%d|%d",
		planName,
		startedAtMs,
		planSeed,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
