package alloc

import (
	"fmt"

	"github.com/joshuapare/kheap/internal/buf"
	"github.com/joshuapare/kheap/internal/format"
)

// endOfList terminates a free list. No block of PointerSize bytes or more can
// start at the top address, so it never collides with a real node.
const endOfList = ^uintptr(0)

// FreeList is a singly linked list whose links live inside the free blocks:
// the first PointerSize bytes of every node hold the address of the next node.
//
// This is the only code that reinterprets block memory. A block belongs to the
// list between Push and the ScanRemove/Pop that hands it back out; the list never
// releases memory anywhere else.
type FreeList struct {
	mem       Memory
	blockSize uintptr
	head      uintptr
	n         int
}

// NewFreeList returns an empty list of blockSize-byte blocks stored in mem.
func NewFreeList(mem Memory, blockSize uintptr) FreeList {
	return FreeList{mem: mem, blockSize: blockSize, head: endOfList}
}

// Len returns the number of blocks on the list.
func (l *FreeList) Len() int { return l.n }

// Empty reports whether the list has no blocks.
func (l *FreeList) Empty() bool { return l.head == endOfList }

// Push prepends the block at addr in O(1).
//
// Panics if the list's blocks are too small to hold a link, or if addr is not
// backed by mem; both mean the caller broke the allocator's contract.
func (l *FreeList) Push(addr uintptr) {
	if l.blockSize < format.PointerSize {
		panic(fmt.Sprintf("alloc: free-list block size %d cannot hold a %d-byte link",
			l.blockSize, format.PointerSize))
	}
	l.setNext(addr, l.head)
	l.head = addr
	l.n++
}

// Pop removes and returns the most recently pushed block.
func (l *FreeList) Pop() (uintptr, bool) {
	if l.head == endOfList {
		return 0, false
	}
	addr := l.head
	l.head = l.next(addr)
	l.n--
	return addr, true
}

// ScanRemove walks the list from the head and unlinks the first block for which
// match returns true, relinking its predecessor to its successor. O(n).
func (l *FreeList) ScanRemove(match func(addr uintptr) bool) (uintptr, bool) {
	prev := endOfList
	for cur := l.head; cur != endOfList; cur = l.next(cur) {
		if match(cur) {
			succ := l.next(cur)
			if prev == endOfList {
				l.head = succ
			} else {
				l.setNext(prev, succ)
			}
			l.n--
			return cur, true
		}
		prev = cur
	}
	return 0, false
}

// Walk calls fn for each block from head to tail until fn returns false.
func (l *FreeList) Walk(fn func(addr uintptr) bool) {
	for cur := l.head; cur != endOfList; cur = l.next(cur) {
		if !fn(cur) {
			return
		}
	}
}

// link returns the pointer-width slot at the start of the block at addr.
func (l *FreeList) link(addr uintptr) []byte {
	slot, ok := l.mem.Bytes(addr, format.PointerSize)
	if !ok {
		panic(fmt.Sprintf("alloc: free-list node %#x is outside managed memory", addr))
	}
	return slot
}

func (l *FreeList) next(addr uintptr) uintptr {
	return buf.Word(l.link(addr))
}

func (l *FreeList) setNext(addr, next uintptr) {
	buf.PutWord(l.link(addr), next)
}
