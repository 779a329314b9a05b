package common

import (
	"strings"
	"testing"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.SetTotalBytes(2048)
	m.AddFrame(512)
	m.AddFrame(512)
	m.IncDrop()
	m.IncUnrecognized()
	m.IncResync()
	m.Stop()

	s := m.Snapshot()
	if s.Bytes != 1024 || s.Frames != 2 {
		t.Errorf("bytes/frames = %d/%d", s.Bytes, s.Frames)
	}
	if s.Drops != 1 || s.Unrecognized != 1 || s.Resyncs != 1 {
		t.Errorf("drops/unrecognized/resyncs = %d/%d/%d", s.Drops, s.Unrecognized, s.Resyncs)
	}
	if got := s.Completion(); got != 0.5 {
		t.Errorf("Completion = %v, want 0.5", got)
	}
	if s.Duration <= 0 {
		t.Error("no duration recorded")
	}
}

func TestMetricsIgnoresNonPositive(t *testing.T) {
	m := NewMetrics()
	m.AddFrame(0)
	m.AddFrame(-5)
	m.SetTotalBytes(-1)
	s := m.Snapshot()
	if s.Frames != 0 || s.Bytes != 0 || s.TotalBytes != 0 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KiB"},
		{3 << 20, "3.00 MiB"},
	}
	for _, c := range cases {
		if got := FormatBytes(c.in); got != c.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHasher(t *testing.T) {
	h := NewHasher()
	if _, err := h.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := h.Sum(); got != want {
		t.Errorf("Sum = %s", got)
	}
}

func TestProgressLine(t *testing.T) {
	line := formatProgressLine(MetricsSnapshot{Bytes: 1024})
	if !strings.HasPrefix(line, "Processed:") {
		t.Errorf("line = %q", line)
	}
	line = formatProgressLine(MetricsSnapshot{Bytes: 1024, TotalBytes: 2048, Duration: 1e9})
	if !strings.Contains(line, "50.00%") {
		t.Errorf("line = %q", line)
	}
}
