package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the size classes",
		Long: `The classes command lists every size class of the configured heap
with its block size. Requests larger than the last class bypass the bins.

Example:
  kheapctl classes
  kheapctl classes --config heap.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

type classInfo struct {
	Class     int     `json:"class"`
	BlockSize uintptr `json:"block_size"`
}

func runClasses() error {
	table, err := loadClasses()
	if err != nil {
		return err
	}

	classes := make([]classInfo, table.NumClasses())
	for k := range classes {
		classes[k] = classInfo{Class: k, BlockSize: table.Size(k)}
	}

	if jsonOut {
		return printJSON(map[string]any{
			"name":    table.Config().Name,
			"classes": classes,
		})
	}

	printInfo("Size classes (%s):\n", table.Config().Name)
	for _, c := range classes {
		printInfo("  %2d  %s bytes\n", c.Class, numbers.Sprintf("%d", c.BlockSize))
	}
	printVerbose("Largest class: %s bytes\n", numbers.Sprintf("%d", table.Largest()))
	return nil
}

// loadClasses builds the size class table of the configured heap.
func loadClasses() (*alloc.SizeClassTable, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	table, err := alloc.NewSizeClassTable(cfg.HeapConfig().Classes)
	if err != nil {
		return nil, errors.Wrap(err, "size classes")
	}
	return table, nil
}
