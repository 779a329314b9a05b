package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It writes human-readable output to
// stderr until SetupLogging reconfigures it.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// LogConfig selects the log level and optional rotating file output.
type LogConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// SetupLogging points Log at stderr plus, when a directory is configured,
// a size-rotated file.
func SetupLogging(cfg LogConfig, verbose bool) error {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Directory, "globetrotter.log"),
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		w = zerolog.MultiLevelWriter(w, rotator)
	}
	Log = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return nil
}
