package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheap/heap/alloc"
	"github.com/joshuapare/kheap/internal/format"
)

// Set with -ldflags "-X main.version=..." at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and allocator build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

type versionInfo struct {
	Version     string  `json:"version"`
	Commit      string  `json:"commit"`
	Built       string  `json:"built"`
	Classes     string  `json:"classes"`
	PointerSize uintptr `json:"pointer_size"`
}

func runVersion() error {
	table, err := alloc.NewSizeClassTable(alloc.DefaultConfig)
	if err != nil {
		return err
	}
	info := versionInfo{
		Version:     version,
		Commit:      commit,
		Built:       date,
		Classes:     table.String(),
		PointerSize: format.PointerSize,
	}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("kheapctl %s\n", info.Version)
	printInfo("  commit: %s\n", info.Commit)
	printInfo("  built: %s\n", info.Built)
	printInfo("  default classes: %s\n", info.Classes)
	printInfo("  free-list link: %d bytes\n", info.PointerSize)
	return nil
}
