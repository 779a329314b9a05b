package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCopyUntilEOF(t *testing.T) {
	var out bytes.Buffer
	n, err := copyUntil(context.Background(), &out, strings.NewReader("hello receiver"))
	if err != nil {
		t.Fatalf("copyUntil: %v", err)
	}
	if n != 14 || out.String() != "hello receiver" {
		t.Errorf("copied %d bytes: %q", n, out.String())
	}
}

type failReader struct{ err error }

func (r failReader) Read([]byte) (int, error) { return 0, r.err }

func TestCopyUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A closed port surfaces as a read error; after cancellation that is a
	// clean stop.
	var out bytes.Buffer
	n, err := copyUntil(ctx, &out, failReader{err: errors.New("port closed")})
	if err != nil {
		t.Fatalf("copyUntil after cancel: %v", err)
	}
	if n != 0 {
		t.Errorf("copied %d bytes", n)
	}
}

func TestCopyUntilReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := copyUntil(context.Background(), io.Discard, failReader{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}
