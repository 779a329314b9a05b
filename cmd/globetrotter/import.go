package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwan3217/globetrotter/internal/common"
	"github.com/kwan3217/globetrotter/internal/ingest"
	"github.com/kwan3217/globetrotter/internal/report"
)

var (
	flagPDF  string
	flagJSON string
)

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "decode recordings into the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.EnsureTables(ctx); err != nil {
			return err
		}

		metrics := common.NewMetrics()
		var total int64
		for _, p := range args {
			if fi, err := os.Stat(p); err == nil {
				total += fi.Size()
			}
		}
		metrics.SetTotalBytes(total)
		metrics.Start()
		stop := common.StartProgressPrinter(os.Stderr, metrics, time.Second)

		var opts []ingest.Option
		if cfg.DumpDir != "" {
			if err := os.MkdirAll(cfg.DumpDir, 0o755); err != nil {
				stop()
				return err
			}
			opts = append(opts, ingest.WithDumpDir(cfg.DumpDir))
		}
		session := ingest.New(st, metrics, opts...)
		sums, err := session.ImportAll(ctx, args, cfg.Concurrency)
		metrics.Stop()
		stop()
		if err != nil {
			return err
		}

		if err := report.WriteText(os.Stdout, sums); err != nil {
			return err
		}
		if flagJSON != "" {
			if err := report.SaveJSON(sums, flagJSON); err != nil {
				return err
			}
		}
		if flagPDF != "" {
			if err := report.SavePDF(sums, flagPDF); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&flagPDF, "pdf", "", "also write a PDF report to this path")
	importCmd.Flags().StringVar(&flagJSON, "json", "", "also write a JSON report to this path")
	rootCmd.AddCommand(importCmd)
}
