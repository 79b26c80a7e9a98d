// Package seeded provides the deterministic pseudo-random source used for
// page sampling, score jitter and feed shuffles. The same (seed, discriminator)
// pair always yields the same value, across processes and restarts.
package seeded

// pageSentinel is the fixed discriminator for "which upstream pages to sample".
const pageSentinel = "999"

// maxPageDistance bounds the seeded gap between sampled upstream pages.
const maxPageDistance = 10

// Derive maps a seed and a per-item discriminator to a value in [0,1).
// The construction is a rolling 32-bit hash of the combined string fed once
// through an integer mixing step; it does not match any external standard,
// it only needs to be deterministic and well-distributed.
func Derive(seed, discriminator string) float64 {
	return mix(hash32(seed + "-" + discriminator))
}

// PageDistance returns the seeded base gap between sampled upstream pages,
// in [0, maxPageDistance).
func PageDistance(seed string) int {
	return int(Derive(seed, pageSentinel) * maxPageDistance)
}

// hash32 is a rolling hash (h = h*31 + byte) truncated to 32 bits.
func hash32(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

// mix runs one round of a mulberry32-style mixing step over the hash state
// and normalizes the result by 2^32.
func mix(h uint32) float64 {
	t := h + 0x6D2B79F5
	r := (t ^ (t >> 15)) * (t | 1)
	r ^= r + (r^(r>>7))*(r|61)
	r ^= r >> 14
	return float64(r) / (1 << 32)
}
