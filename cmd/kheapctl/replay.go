package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/heap"
	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/heap/metrics"
	"github.com/joshuapare/kheap/internal/logger"
	"github.com/joshuapare/kheap/internal/trace"
)

var (
	replayMetrics  bool
	replayShowFree bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayMetrics, "metrics", false, "Print heap metrics in Prometheus text format")
	cmd.Flags().BoolVar(&replayShowFree, "show-free", false, "List the free blocks of every class")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace|->",
		Short: "Replay an allocation trace",
		Long: `The replay command builds a heap from the configuration and runs an
allocation trace against it, reporting every granted address, failed
request and the blocks still live at the end.

Trace format, one operation per line:
  alloc <name> <size> <align>
  free <name>
  free <addr> <size> <align>

Example:
  kheapctl replay boot.trace
  kheapctl replay boot.trace --config heap.yaml --metrics
  cat boot.trace | kheapctl replay - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
}

type replayOp struct {
	Line  int    `json:"line"`
	Op    string `json:"op"`
	Addr  string `json:"addr,omitempty"`
	Error string `json:"error,omitempty"`
}

type replayBlock struct {
	Name  string  `json:"name"`
	Addr  string  `json:"addr"`
	Size  uintptr `json:"size"`
	Align uintptr `json:"align"`
}

type replayFree struct {
	Class     int      `json:"class"`
	BlockSize uintptr  `json:"block_size"`
	Blocks    []string `json:"blocks"`
}

type replayOutput struct {
	Heap     string        `json:"heap"`
	Ops      []replayOp    `json:"ops"`
	Live     []replayBlock `json:"live"`
	Allocs   int           `json:"allocs"`
	Frees    int           `json:"frees"`
	Failures int           `json:"failures"`
	Stats    alloc.Stats   `json:"stats"`
	Free     []replayFree  `json:"free,omitempty"`
}

func runReplay(args []string) error {
	ops, err := readTrace(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	hc := cfg.HeapConfig()
	hc.Logger = logger.L
	h, err := heap.New(hc)
	if err != nil {
		return err
	}
	defer h.Close()

	logger.Debug("replaying trace", "path", args[0], "ops", len(ops),
		"start", h.Start(), "end", h.End())

	rep, err := trace.Replay(h.Allocator(), ops, trace.WithMemory(h))
	if err != nil {
		return err
	}

	if replayMetrics {
		reg := prometheus.NewRegistry()
		if err := reg.Register(metrics.NewCollector(h)); err != nil {
			return errors.Wrap(err, "register collector")
		}
		return metrics.WriteText(os.Stdout, reg)
	}

	out := replayOutput{
		Heap:     h.String(),
		Ops:      make([]replayOp, 0, len(rep.Results)),
		Live:     make([]replayBlock, 0, len(rep.Live)),
		Allocs:   rep.Allocs,
		Frees:    rep.Frees,
		Failures: rep.Failures,
		Stats:    h.Stats(),
	}
	for _, r := range rep.Results {
		op := replayOp{Line: r.Op.Line, Op: r.Op.String()}
		if r.Err != nil {
			op.Error = r.Err.Error()
		} else {
			op.Addr = hex(r.Addr)
		}
		out.Ops = append(out.Ops, op)
	}
	for _, b := range rep.Live {
		out.Live = append(out.Live, replayBlock{
			Name: b.Name, Addr: hex(b.Addr), Size: b.Layout.Size, Align: b.Layout.Align,
		})
	}

	snap := h.Snapshot()
	if replayShowFree {
		for k, n := range snap.FreeCounts {
			if n == 0 {
				continue
			}
			f := replayFree{Class: k, BlockSize: snap.ClassSizes[k]}
			for _, addr := range h.FreeBlocks(k) {
				f.Blocks = append(f.Blocks, hex(addr))
			}
			out.Free = append(out.Free, f)
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	for _, op := range out.Ops {
		if op.Error != "" {
			printInfo("%4d  %-32s  FAILED: %s\n", op.Line, op.Op, op.Error)
			continue
		}
		printVerbose("%4d  %-32s  %s\n", op.Line, op.Op, op.Addr)
	}

	printInfo("\nReplayed %s operations: %s allocs, %s frees, %s failed\n",
		numbers.Sprintf("%d", len(ops)), numbers.Sprintf("%d", rep.Allocs),
		numbers.Sprintf("%d", rep.Frees), numbers.Sprintf("%d", rep.Failures))
	printInfo("Bin hits: %s, fresh blocks: %s, large: %s\n",
		numbers.Sprintf("%d", out.Stats.BinHits), numbers.Sprintf("%d", out.Stats.BumpFallbacks),
		numbers.Sprintf("%d", out.Stats.LargeAllocs))
	printInfo("Heap [%s, %s): %s bytes used, %s bytes remaining\n",
		hex(snap.Start), hex(snap.End), numbers.Sprintf("%d", snap.Used), numbers.Sprintf("%d", snap.Remaining))

	if len(out.Live) > 0 {
		printInfo("Live blocks:\n")
		for _, b := range out.Live {
			printInfo("  %-16s %s  size=%d align=%d\n", b.Name, b.Addr, b.Size, b.Align)
		}
	}

	if replayShowFree {
		printInfo("Free blocks:\n")
		for _, f := range out.Free {
			printInfo("  class %2d (%s B): %d\n", f.Class, numbers.Sprintf("%d", f.BlockSize), len(f.Blocks))
			printInfo("    %s\n", strings.Join(f.Blocks, " "))
		}
	}
	return nil
}

func readTrace(path string) ([]trace.Op, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open trace")
		}
		defer f.Close()
		r = f
	}
	return trace.Parse(r)
}

func hex(addr uintptr) string {
	return fmt.Sprintf("%#x", addr)
}
