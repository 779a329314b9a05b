// Command globetrotter imports marine telemetry recordings (UBX, AIS,
// NMEA, RTCM, GPS subframes) into a queryable archive.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kwan3217/globetrotter/internal/common"
	"github.com/kwan3217/globetrotter/internal/config"
	"github.com/kwan3217/globetrotter/internal/store"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "globetrotter",
	Short:         "decode and archive marine telemetry recordings",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the configured file, or falls back to defaults, and
// wires up logging.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
	}
	if err := common.SetupLogging(cfg.Logs, flagVerbose); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		return store.OpenPostgres(ctx, cfg.Store.DSN)
	case config.BackendPebble:
		return store.OpenPebble(cfg.Store.Path)
	default:
		return store.NewMemory(), nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
