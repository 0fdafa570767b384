package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/esvm-dev/esvm/internal/bytecode"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and VM capacity information",
	Long: `Display the launcher's version alongside the fixed-capacity limits the
embedded VM was built with (STACK/GLOBALS/LOCALS/etc.), since a host
deciding whether to embed this VM cares about those as much as the commit.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("esvm %s (commit %s, built %s)\n\n", Version, GitCommit, BuildDate)

		cfg := bytecode.DefaultConfig()
		fmt.Println("default VM limits:")
		fmt.Printf("  stack capacity      %d\n", cfg.StackCapacity)
		fmt.Printf("  globals             %d\n", cfg.GlobalCapacity)
		fmt.Printf("  locals per frame    %d\n", cfg.LocalCapacity)
		fmt.Printf("  max string length   %d\n", cfg.MaxStringLen)
		fmt.Printf("  array slots         %d\n", cfg.ArraySlots)
		fmt.Printf("  array max elements  %d\n", cfg.ArrayMaxElements)
		fmt.Printf("  data segment bytes  %d\n", cfg.DataSegmentSize)
		fmt.Printf("  call frames         %d\n", cfg.FrameCapacity)
		fmt.Printf("  host routines       %d\n", cfg.HostTableSize)
		fmt.Printf("  host name length    %d\n", cfg.HostNameMaxLen)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
