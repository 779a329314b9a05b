// Package report renders import summaries as text, JSON and PDF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kwan3217/globetrotter/internal/ingest"
)

// WriteText prints one block per file with its per-packet record counts.
func WriteText(w io.Writer, sums []*ingest.Summary) error {
	for _, sum := range sums {
		if sum == nil {
			continue
		}
		if sum.Skipped {
			fmt.Fprintf(w, "%s: already imported\n\n", sum.File)
			continue
		}
		fmt.Fprintf(w, "%s (%d bytes, sha256 %s)\n", sum.File, sum.Bytes, sum.SHA256)
		fmt.Fprintf(w, "  frames %d, drops %d, unrecognized %d, took %s\n",
			sum.Frames, sum.Drops, sum.Unrecognized,
			sum.Finished.Sub(sum.Started).Round(time.Millisecond))
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		for _, key := range sum.SortedCounts() {
			fmt.Fprintf(tw, "  %s\t%d\n", key, sum.Counts[key])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// SaveJSON writes the summaries as an indented JSON array.
func SaveJSON(sums []*ingest.Summary, out string) error {
	b, err := json.MarshalIndent(sums, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}
