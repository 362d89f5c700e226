package heap

import (
	"sync"

	"github.com/joshuapare/kheap/heap/alloc"
)

// Locked serializes access to an allocator that is not safe for concurrent use.
// It is the only synchronization in the heap; the allocators themselves never lock.
type Locked struct {
	mu sync.Mutex
	a  alloc.Allocator
}

// NewLocked wraps a.
func NewLocked(a alloc.Allocator) *Locked {
	return &Locked{a: a}
}

// Alloc allocates under the lock.
func (lk *Locked) Alloc(l alloc.Layout) (uintptr, error) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	return lk.a.Alloc(l)
}

// Dealloc frees under the lock.
func (lk *Locked) Dealloc(ptr uintptr, l alloc.Layout) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	lk.a.Dealloc(ptr, l)
}

// With runs fn with exclusive access to the wrapped allocator.
// fn must not retain a.
func (lk *Locked) With(fn func(a alloc.Allocator)) {
	lk.mu.Lock()
	defer lk.mu.Unlock()
	fn(lk.a)
}

var _ alloc.Allocator = (*Locked)(nil)
