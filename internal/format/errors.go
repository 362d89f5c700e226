package format

import "fmt"

// AlignError describes a rejected alignment request from the panicking helpers.
type AlignError struct {
	Op       string
	Addr     uintptr
	Align    uintptr
	Overflow bool
}

func (e *AlignError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("format: %s: overflow aligning address %#x up to %d", e.Op, e.Addr, e.Align)
	}
	return fmt.Sprintf("format: %s: alignment %d is not a power of 2", e.Op, e.Align)
}

func errNotPowerOfTwo(op string, align uintptr) error {
	return &AlignError{Op: op, Align: align}
}
