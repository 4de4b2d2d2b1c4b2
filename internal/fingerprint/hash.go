package fingerprint

const hashMultiplier = 1000003

// Hash is an order-sensitive multiplicative rolling hash over fingerprint
// bytes: seeded from the first byte, with the length folded in last. It is
// tuned for speed; collisions are settled by exact byte comparison.
func Hash(b []byte) uint64 { return rollingHash(b) }

// Hash returns the rolling hash of f.
func (f Fingerprint) Hash() uint64 { return rollingHash(f) }

func rollingHash[S ~string | ~[]byte](b S) uint64 {
	n := len(b)
	if n == 0 {
		return 0
	}
	x := uint64(b[0]) << 7
	for i := 0; i < n; i++ {
		x = (hashMultiplier * x) ^ uint64(b[i])
	}
	x ^= uint64(n)
	if x == ^uint64(0) {
		x--
	}
	return x
}
