package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kwan3217/globetrotter/internal/ingest"
)

func sampleSummary() *ingest.Summary {
	started := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)
	return &ingest.Summary{
		File:     "run1.ubx",
		SHA256:   "a3f2b4c6d8e0a3f2b4c6d8e0a3f2b4c6d8e0a3f2b4c6d8e0a3f2b4c6d8e0a3f2",
		Bytes:    4096,
		Frames:   120,
		Drops:    2,
		Counts:   map[string]int64{"ubx/nav_pvt": 50, "ais/ais_pos_a": 3},
		Started:  started,
		Finished: started.Add(750 * time.Millisecond),
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	sums := []*ingest.Summary{sampleSummary(), {File: "run2.ubx", Skipped: true}, nil}
	if err := WriteText(&buf, sums); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"run1.ubx (4096 bytes",
		"frames 120, drops 2",
		"ubx/nav_pvt",
		"50",
		"run2.ubx: already imported",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSaveJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	if err := SaveJSON([]*ingest.Summary{sampleSummary()}, out); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(raw, []byte(`"ubx/nav_pvt": 50`)) {
		t.Errorf("JSON missing counts: %s", raw)
	}
}

func TestFileIdentityQR(t *testing.T) {
	png, err := FileIdentityQR("run1.ubx", "a3f2", 128)
	if err != nil {
		t.Fatalf("FileIdentityQR: %v", err)
	}
	if len(png) == 0 || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("not a PNG")
	}
	if _, err := FileIdentityQR("run1.ubx", "", 128); err == nil {
		t.Error("empty hash accepted")
	}
}

func TestSanitizeHash(t *testing.T) {
	if got := sanitizeHash(" a3f2-b4 "); got != "A3F2B4" {
		t.Errorf("sanitizeHash = %q", got)
	}
}

func TestSavePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.pdf")
	if err := SavePDF([]*ingest.Summary{sampleSummary()}, out); err != nil {
		t.Fatalf("SavePDF: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
