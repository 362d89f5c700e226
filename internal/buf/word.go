// Package buf contains bounds-checked slicing and the native-endian word
// accessors used to store intrusive links inside heap blocks.
package buf

import (
	"encoding/binary"

	"github.com/joshuapare/kheap/internal/format"
)

// WordSize is the number of bytes read or written by Word and PutWord.
const WordSize = int(format.PointerSize)

// Word reads a native-endian pointer-width value from b. Returns 0 when b is too short.
func Word(b []byte) uintptr {
	if len(b) < WordSize {
		return 0
	}
	if WordSize == 4 {
		return uintptr(binary.NativeEndian.Uint32(b))
	}
	return uintptr(binary.NativeEndian.Uint64(b))
}

// PutWord writes v as a native-endian pointer-width value to b.
// Reports false, leaving b untouched, when b is too short.
func PutWord(b []byte, v uintptr) bool {
	if len(b) < WordSize {
		return false
	}
	if WordSize == 4 {
		binary.NativeEndian.PutUint32(b, uint32(v))
	} else {
		binary.NativeEndian.PutUint64(b, uint64(v))
	}
	return true
}
