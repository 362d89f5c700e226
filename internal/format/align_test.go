package format

import (
	"errors"
	"math"
	"testing"
)

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[uintptr]bool{
		0: false, 1: true, 2: true, 3: false, 8: true, 12: false,
		1 << 16: true, math.MaxUint64 >> (64 - WordBits): false,
	}
	for x, want := range cases {
		if got := IsPowerOfTwo(x); got != want {
			t.Fatalf("IsPowerOfTwo(%d) = %v, want %v", x, got, want)
		}
	}
}

func TestAlignUpDown(t *testing.T) {
	tests := []struct {
		addr, align, up, down uintptr
	}{
		{0, 1, 0, 0},
		{0x1000, 8, 0x1000, 0x1000},
		{0x1001, 8, 0x1008, 0x1000},
		{0x1007, 8, 0x1008, 0x1000},
		{0x1008, 16, 0x1010, 0x1000},
		{0x1fff, 0x1000, 0x2000, 0x1000},
		{5, 1, 5, 5},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.addr, tt.align); got != tt.up {
			t.Fatalf("AlignUp(%#x, %d) = %#x, want %#x", tt.addr, tt.align, got, tt.up)
		}
		if got := AlignDown(tt.addr, tt.align); got != tt.down {
			t.Fatalf("AlignDown(%#x, %d) = %#x, want %#x", tt.addr, tt.align, got, tt.down)
		}
	}
}

func TestAlignPanicsOnBadAlignment(t *testing.T) {
	for _, fn := range []func(){
		func() { AlignUp(0x1000, 3) },
		func() { AlignDown(0x1000, 0) },
	} {
		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("expected panic for non power-of-two alignment")
				}
				var ae *AlignError
				if err, ok := r.(error); !ok || !errors.As(err, &ae) || ae.Overflow {
					t.Fatalf("unexpected panic value: %v", r)
				}
			}()
			fn()
		}()
	}
}

func TestAlignUpPanicsOnOverflow(t *testing.T) {
	defer func() {
		r := recover()
		var ae *AlignError
		if err, ok := r.(error); !ok || !errors.As(err, &ae) || !ae.Overflow {
			t.Fatalf("expected overflow panic, got %v", r)
		}
	}()
	AlignUp(^uintptr(0)-3, 16)
}

func TestCheckedAlignUp(t *testing.T) {
	if got, ok := CheckedAlignUp(0x1001, 0x100); !ok || got != 0x1100 {
		t.Fatalf("CheckedAlignUp = %#x,%v want 0x1100,true", got, ok)
	}
	if _, ok := CheckedAlignUp(^uintptr(0), 2); ok {
		t.Fatalf("expected overflow when aligning the top address")
	}
	if got, ok := CheckedAlignUp(^uintptr(0), 1); !ok || got != ^uintptr(0) {
		t.Fatalf("alignment 1 must never overflow")
	}
	if _, ok := CheckedAlignUp(16, 6); ok {
		t.Fatalf("expected failure for non power-of-two alignment")
	}
}

func TestCheckedNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		in, want uintptr
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {8, 8}, {9, 16}, {65536, 65536}, {65537, 131072},
	}
	for _, tt := range tests {
		if got, ok := CheckedNextPowerOfTwo(tt.in); !ok || got != tt.want {
			t.Fatalf("CheckedNextPowerOfTwo(%d) = %d,%v want %d,true", tt.in, got, ok, tt.want)
		}
	}

	top := uintptr(1) << (WordBits - 1)
	if got, ok := CheckedNextPowerOfTwo(top); !ok || got != top {
		t.Fatalf("highest power of two should round to itself")
	}
	if _, ok := CheckedNextPowerOfTwo(top + 1); ok {
		t.Fatalf("expected overflow past the highest power of two")
	}
}

func TestTrailingZeros(t *testing.T) {
	if TrailingZeros(8) != 3 || TrailingZeros(1<<16) != 16 || TrailingZeros(1) != 0 {
		t.Fatalf("unexpected trailing zero counts")
	}
	if TrailingZeros(0) != int(WordBits) {
		t.Fatalf("TrailingZeros(0) should be the word width")
	}
}
