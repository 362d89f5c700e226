package trace

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/internal/format"
)

// Result is the outcome of one replayed operation.
type Result struct {
	Op   Op
	Addr uintptr // granted or freed address
	Err  error   // allocation error, or a rejected free by address
}

// Block is a live named allocation.
type Block struct {
	Name   string
	Addr   uintptr
	Layout alloc.Layout
}

// Report summarizes a replay.
type Report struct {
	Results  []Result
	Live     []Block // sorted by address
	Allocs   int
	Frees    int
	Failures int
}

// Option configures Replay.
type Option func(*replayer)

type replayer struct {
	mem alloc.Memory
}

// WithMemory checks every free by address against mem before it reaches the
// allocator. Addresses mem does not back fail with ErrUnknownAddress.
func WithMemory(mem alloc.Memory) Option {
	return func(r *replayer) { r.mem = mem }
}

// Replay runs ops against a in order.
//
// Failed allocations are recorded, not returned: running out of memory is a
// legitimate trace outcome. A failed named allocation leaves the name unbound.
// Freeing an unknown name or rebinding a live one aborts the replay.
//
// Without WithMemory, a free by address is passed to a unchecked.
func Replay(a alloc.Allocator, ops []Op, opts ...Option) (*Report, error) {
	var rp replayer
	for _, opt := range opts {
		opt(&rp)
	}
	live := make(map[string]Block)
	rep := &Report{Results: make([]Result, 0, len(ops))}

	for _, op := range ops {
		res := Result{Op: op}
		switch op.Kind {
		case Alloc:
			if _, ok := live[op.Name]; ok {
				return rep, errors.Wrapf(ErrNameInUse, "line %d: %q", op.Line, op.Name)
			}
			rep.Allocs++
			addr, err := a.Alloc(op.Layout)
			if err != nil {
				rep.Failures++
				res.Err = err
				break
			}
			res.Addr = addr
			live[op.Name] = Block{Name: op.Name, Addr: addr, Layout: op.Layout}

		case Free:
			addr, l := op.Addr, op.Layout
			if op.Name != "" {
				b, ok := live[op.Name]
				if !ok {
					return rep, errors.Wrapf(ErrUnknownName, "line %d: %q", op.Line, op.Name)
				}
				delete(live, op.Name)
				addr, l = b.Addr, b.Layout
			} else if rp.mem != nil && l.Valid() {
				// The free-list link is written at addr, even for a one-byte block.
				if _, ok := rp.mem.Bytes(addr, max(l.Size, l.Align, format.PointerSize)); !ok {
					rep.Failures++
					res.Err = errors.Wrapf(ErrUnknownAddress, "%#x", addr)
					break
				}
			}
			rep.Frees++
			a.Dealloc(addr, l)
			res.Addr = addr
		}
		rep.Results = append(rep.Results, res)
	}

	rep.Live = make([]Block, 0, len(live))
	for _, b := range live {
		rep.Live = append(rep.Live, b)
	}
	sort.Slice(rep.Live, func(i, j int) bool { return rep.Live[i].Addr < rep.Live[j].Addr })
	return rep, nil
}
