package batch

// EventSeed derives the seed of the sequence-th event of a plan.
// A zero plan seed yields 0, which asks the orchestrator for a random seed.
// The result is never 0 otherwise.
func EventSeed(planSeed uint64, sequence int) uint64 {
	if planSeed == 0 {
		return 0
	}
	// splitmix64 finalizer
	z := planSeed + uint64(sequence+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	if z == 0 {
		return 1
	}
	return z
}
