package format

import "math/bits"

// Alignment utilities for heap addresses.
// Every alignment handled here must be a power of two; the allocator paths use the
// Checked* variants so that a bad address never wraps around the address space.

// IsPowerOfTwo reports whether x is a power of two. Zero is not.
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && x&(x-1) == 0
}

// AlignDown returns addr rounded down to the nearest multiple of align.
// The result is always <= addr.
//
// Panics if align is not a power of two.
//
// Example:
//
//	AlignDown(0x1007, 8) = 0x1000
//	AlignDown(0x1008, 8) = 0x1008
func AlignDown(addr, align uintptr) uintptr {
	if !IsPowerOfTwo(align) {
		panic(errNotPowerOfTwo("AlignDown", align))
	}
	return addr &^ (align - 1)
}

// AlignUp returns addr rounded up to the nearest multiple of align.
// The result is always >= addr.
//
// Panics if align is not a power of two or if rounding overflows the address.
//
// Example:
//
//	AlignUp(0x1001, 8) = 0x1008
//	AlignUp(0x1008, 8) = 0x1008
func AlignUp(addr, align uintptr) uintptr {
	if !IsPowerOfTwo(align) {
		panic(errNotPowerOfTwo("AlignUp", align))
	}
	n, ok := CheckedAlignUp(addr, align)
	if !ok {
		panic(&AlignError{Op: "AlignUp", Addr: addr, Align: align, Overflow: true})
	}
	return n
}

// CheckedAlignUp is AlignUp without panics: ok is false when align is not a
// power of two or when the aligned address does not fit in a uintptr.
func CheckedAlignUp(addr, align uintptr) (uintptr, bool) {
	if !IsPowerOfTwo(align) {
		return 0, false
	}
	mask := align - 1
	if addr&mask == 0 {
		return addr, true
	}
	sum, carry := bits.Add(uint(addr), uint(mask), 0)
	if carry != 0 {
		return 0, false
	}
	return uintptr(sum) &^ mask, true
}

// CheckedNextPowerOfTwo returns the smallest power of two >= n.
// ok is false when that power does not fit in a uintptr. n == 0 yields 1.
func CheckedNextPowerOfTwo(n uintptr) (uintptr, bool) {
	if n <= 1 {
		return 1, true
	}
	shift := bits.Len(uint(n - 1))
	if shift >= bits.UintSize {
		return 0, false
	}
	return uintptr(1) << shift, true
}

// TrailingZeros returns the number of trailing zero bits in x; UintSize for x == 0.
func TrailingZeros(x uintptr) int {
	return bits.TrailingZeros(uint(x))
}
