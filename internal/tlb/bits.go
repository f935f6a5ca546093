package tlb

import "math/bits"

// isPowerOfTwo reports whether n is a non-zero power of two.
func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}

// log2 returns the exponent of n. n must be a power of two.
func log2(n uint64) uint {
	return uint(bits.Len64(n)) - 1
}
