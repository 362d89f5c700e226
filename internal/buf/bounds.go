package buf

import "math/bits"

// AddOverflowSafe adds a and b, returning ok = false when the sum does not fit in a uintptr.
func AddOverflowSafe(a, b uintptr) (uintptr, bool) {
	sum, carry := bits.Add(uint(a), uint(b), 0)
	if carry != 0 {
		return 0, false
	}
	return uintptr(sum), true
}

// RangeWithin reports whether [addr, addr+n) lies inside [start, end).
// An addr+n that overflows is never within range.
func RangeWithin(addr, n, start, end uintptr) bool {
	if addr < start {
		return false
	}
	last, ok := AddOverflowSafe(addr, n)
	return ok && last <= end
}

// Slice returns b[off:off+n] with its capacity clipped to n, if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	if n > len(b)-off {
		return nil, false
	}
	return b[off : off+n : off+n], true
}
