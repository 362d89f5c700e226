//go:build !unix && !windows

package region

// reserve falls back to a Go-managed buffer when no mapping API is available.
func reserve(size int) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
