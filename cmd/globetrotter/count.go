package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kwan3217/globetrotter/internal/common"
	"github.com/kwan3217/globetrotter/internal/ingest"
	"github.com/kwan3217/globetrotter/internal/report"
	"github.com/kwan3217/globetrotter/internal/store"
)

var countCmd = &cobra.Command{
	Use:   "count FILE...",
	Short: "decode recordings and print counts without storing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		metrics := common.NewMetrics()
		metrics.Start()
		session := ingest.New(store.NewMemory(), metrics)
		sums, err := session.ImportAll(cmd.Context(), args, cfg.Concurrency)
		metrics.Stop()
		if err != nil {
			return err
		}
		return report.WriteText(os.Stdout, sums)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
