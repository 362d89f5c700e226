package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/internal/config"
)

func init() {
	rootCmd.AddCommand(newMapCmd())
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <size> [align]",
		Short: "Show which size class serves a request",
		Long: `The map command shows the size class a request of the given size
and alignment is served from. Sizes accept hex and KiB/MiB/GiB suffixes.
The alignment defaults to 1.

Example:
  kheapctl map 24
  kheapctl map 100 64
  kheapctl map 64KiB`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
}

type mapResult struct {
	Size      uintptr `json:"size"`
	Align     uintptr `json:"align"`
	Class     int     `json:"class"`
	BlockSize uintptr `json:"block_size,omitempty"`
	Fallback  bool    `json:"fallback"`
}

func runMap(args []string) error {
	size, err := config.ParseSize(args[0])
	if err != nil {
		return err
	}
	align := config.Size(1)
	if len(args) == 2 {
		if align, err = config.ParseSize(args[1]); err != nil {
			return err
		}
	}
	l, err := alloc.NewLayout(uintptr(size), uintptr(align))
	if err != nil {
		return err
	}

	table, err := loadClasses()
	if err != nil {
		return err
	}

	res := mapResult{Size: l.Size, Align: l.Align, Class: -1, Fallback: true}
	if k, ok := table.Map(l.Size, l.Align); ok {
		res.Class, res.BlockSize, res.Fallback = k, table.Size(k), false
	}

	if jsonOut {
		return printJSON(res)
	}
	if res.Fallback {
		printInfo("%s: no size class, served by the bump allocator and leaked on free\n", l)
		return nil
	}
	printInfo("%s: class %d (%s-byte blocks)\n", l, res.Class, numbers.Sprintf("%d", res.BlockSize))
	return nil
}
