// Package trace parses textual allocation traces and replays them against an
// allocator.
//
// A trace has one operation per line:
//
//	# comment
//	alloc <name> <size> <align>   allocate and bind the address to name
//	free <name>                   free the block bound to name
//	free <addr> <size> <align>    free an explicit address
//
// Numbers are decimal or 0x-prefixed hex. Blank lines and text after '#' are ignored.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/joshuapare/kheap/heap/alloc"
)

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrUnknownName indicates a free of a name that is not live.
	ErrUnknownName = errors.New("trace: unknown name")

	// ErrNameInUse indicates an alloc that rebinds a live name.
	ErrNameInUse = errors.New("trace: name in use")

	// ErrUnknownAddress indicates a free of an address outside the heap.
	ErrUnknownAddress = errors.New("trace: address outside heap")
)

// Kind is the operation type.
type Kind int

const (
	Alloc Kind = iota
	Free
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Op is one trace operation.
type Op struct {
	Line   int
	Kind   Kind
	Name   string // empty for a free by address
	Addr   uintptr
	Layout alloc.Layout
}

func (op Op) String() string {
	switch {
	case op.Kind == Alloc:
		return fmt.Sprintf("alloc %s %d %d", op.Name, op.Layout.Size, op.Layout.Align)
	case op.Name != "":
		return "free " + op.Name
	default:
		return fmt.Sprintf("free %#x %d %d", op.Addr, op.Layout.Size, op.Layout.Align)
	}
}

// Parse reads a trace. Layouts are not validated so a trace can exercise the
// allocator's own rejection of bad requests.
func Parse(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		op, err := parseOp(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		op.Line = line
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "trace: read")
	}
	return ops, nil
}

func parseOp(fields []string) (Op, error) {
	switch fields[0] {
	case "alloc":
		if len(fields) != 4 {
			return Op{}, errors.Wrap(ErrSyntax, "want: alloc <name> <size> <align>")
		}
		l, err := parseLayout(fields[2], fields[3])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Alloc, Name: fields[1], Layout: l}, nil

	case "free":
		switch len(fields) {
		case 2:
			return Op{Kind: Free, Name: fields[1]}, nil
		case 4:
			addr, err := parseNum(fields[1])
			if err != nil {
				return Op{}, err
			}
			l, err := parseLayout(fields[2], fields[3])
			if err != nil {
				return Op{}, err
			}
			return Op{Kind: Free, Addr: addr, Layout: l}, nil
		default:
			return Op{}, errors.Wrap(ErrSyntax, "want: free <name> | free <addr> <size> <align>")
		}

	default:
		return Op{}, errors.Wrapf(ErrSyntax, "unknown operation %q", fields[0])
	}
}

func parseLayout(size, align string) (alloc.Layout, error) {
	s, err := parseNum(size)
	if err != nil {
		return alloc.Layout{}, err
	}
	a, err := parseNum(align)
	if err != nil {
		return alloc.Layout{}, err
	}
	return alloc.Layout{Size: s, Align: a}, nil
}

func parseNum(s string) (uintptr, error) {
	n, err := strconv.ParseUint(s, 0, strconv.IntSize)
	if err != nil {
		return 0, errors.Wrapf(ErrSyntax, "bad number %q", s)
	}
	return uintptr(n), nil
}
