// Package capture records raw receiver output from a serial port into a
// timestamped file for later import.
package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.bug.st/serial"

	"github.com/kwan3217/globetrotter/internal/common"
)

// Config names the port and where recordings land.
type Config struct {
	Port string
	Baud int
	Dir  string
}

// ListPorts returns the serial ports visible on this machine.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Run records from the port until ctx is cancelled and returns the path of
// the recording.
func Run(ctx context.Context, cfg Config) (string, error) {
	if cfg.Baud <= 0 {
		cfg.Baud = 115200
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return "", fmt.Errorf("capture: open %s: %w", cfg.Port, err)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		port.Close()
		return "", fmt.Errorf("capture: %w", err)
	}
	path := filepath.Join(cfg.Dir, time.Now().UTC().Format("20060102_150405")+".ubx")
	out, err := os.Create(path)
	if err != nil {
		port.Close()
		return "", fmt.Errorf("capture: %w", err)
	}

	// Closing the port unblocks a pending Read when ctx ends.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	common.Log.Info().Str("port", cfg.Port).Int("baud", cfg.Baud).Str("file", path).Msg("recording")
	n, err := copyUntil(ctx, out, port)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return path, fmt.Errorf("capture: %w", err)
	}
	common.Log.Info().Int64("bytes", n).Str("file", path).Msg("recording stopped")
	return path, nil
}

// copyUntil copies src to dst until ctx cancellation or EOF. Cancellation
// is a clean stop, not an error.
func copyUntil(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err != nil {
			if ctx.Err() != nil || err == io.EOF {
				return total, nil
			}
			return total, err
		}
	}
}
