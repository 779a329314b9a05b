package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Overridden at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("globetrotter %s (%s, %s)\n", version, commit, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
