package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFletcher8(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		ckA  byte
		ckB  byte
	}{
		{"empty", nil, 0, 0},
		{"single one", []byte{0x01}, 1, 1},
		{"two bytes", []byte{0x01, 0x02}, 3, 4},
		{"ubx ack header", []byte{0x05, 0x01, 0x02, 0x00, 0x06, 0x02}, 0x10, 0x39},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := Fletcher8(tc.in)
			if a != tc.ckA || b != tc.ckB {
				t.Fatalf("Fletcher8 = (%#x, %#x), want (%#x, %#x)", a, b, tc.ckA, tc.ckB)
			}
		})
	}
}

func TestFletcher8Chained(t *testing.T) {
	buf := []byte{0xB5, 0x62, 0x01, 0x07, 0x5C, 0x00}
	a1, b1 := Fletcher8(buf)
	a2, b2 := Fletcher8(buf[:3], buf[3:])
	if a1 != a2 || b1 != b2 {
		t.Fatalf("split Fletcher8 = (%#x, %#x), want (%#x, %#x)", a2, b2, a1, b1)
	}
}

func TestXorChecksum(t *testing.T) {
	if ck := XorChecksum([]byte("GPGGA,1,2,3")); ck != 0x4A {
		t.Fatalf("XorChecksum = %#x, want 0x4a", ck)
	}
	// A single bit flip anywhere changes the result.
	body := []byte("GPGGA,1,2,3")
	want := XorChecksum(body)
	for i := range body {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), body...)
			flipped[i] ^= 1 << uint(bit)
			if XorChecksum(flipped) == want {
				t.Fatalf("flip of byte %d bit %d left checksum unchanged", i, bit)
			}
		}
	}
}

// makeUBX assembles a valid UBX frame.
func makeUBX(class, id byte, payload []byte) []byte {
	frame := []byte{0xB5, 0x62, class, id, byte(len(payload)), byte(len(payload) >> 8)}
	frame = append(frame, payload...)
	ckA, ckB := Fletcher8(frame[2:])
	return append(frame, ckA, ckB)
}

func TestNextUBX(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	r := NewReader(bytes.NewReader(makeUBX(0x01, 0x07, payload)))
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Kind != KindUBX || f.Class != 0x01 || f.ID != 0x07 {
		t.Fatalf("frame = %v %#x %#x", f.Kind, f.Class, f.ID)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload = % x", f.Payload)
	}
	if f.Err != nil {
		t.Fatalf("unexpected frame error: %v", f.Err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("second Next err = %v, want io.EOF", err)
	}
}

func TestNextUBXBadChecksum(t *testing.T) {
	bad := makeUBX(0x01, 0x07, make([]byte, 92))
	bad[len(bad)-1] ^= 0xFF
	good := makeUBX(0x01, 0x61, []byte{1, 2, 3, 4})
	r := NewReader(bytes.NewReader(append(bad, good...)))

	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	var ckErr *ChecksumError
	if !errors.As(f.Err, &ckErr) {
		t.Fatalf("frame error = %v, want ChecksumError", f.Err)
	}
	// The whole frame is consumed: sync+header+payload+checksum.
	if want := int64(6 + 92 + 2); r.Offset() != want {
		t.Fatalf("offset = %d, want %d", r.Offset(), want)
	}
	// The next frame parses cleanly from the new position.
	f, err = r.Next()
	if err != nil || f.Err != nil {
		t.Fatalf("frame after drop: %v / %v", err, f.Err)
	}
	if f.Class != 0x01 || f.ID != 0x61 {
		t.Fatalf("frame after drop = %#x %#x", f.Class, f.ID)
	}
}

func TestNextBadSecondMagic(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xB5, 0x00, 0xB5, 0x62}))
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Kind != KindUnrecognized || len(f.Raw) != 2 {
		t.Fatalf("frame = %v raw % x, want unrecognized 2 bytes", f.Kind, f.Raw)
	}
	if r.Offset() != 2 {
		t.Fatalf("offset = %d, want 2", r.Offset())
	}
}

func TestNextNMEA(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		payload string
		bad     bool
	}{
		{"valid lowercase hex", "$GPGGA,1,2,3*4a\r\n", "GPGGA,1,2,3", false},
		{"valid uppercase hex", "$GPGGA,1,2,3*4A\r\n", "GPGGA,1,2,3", false},
		{"wrong checksum", "$GPGGA,1,2,3*00\r\n", "GPGGA,1,2,3", true},
		{"no checksum", "$GPTXT,hello\r\n", "GPTXT,hello", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(bytes.NewReader([]byte(tc.in)))
			f, err := r.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if f.Kind != KindNMEA {
				t.Fatalf("kind = %v", f.Kind)
			}
			if string(f.Payload) != tc.payload {
				t.Fatalf("payload = %q, want %q", f.Payload, tc.payload)
			}
			if (f.Err != nil) != tc.bad {
				t.Fatalf("frame err = %v, bad = %v", f.Err, tc.bad)
			}
			if r.Offset() != int64(len(tc.in)) {
				t.Fatalf("offset = %d, want %d", r.Offset(), len(tc.in))
			}
		})
	}
}

func TestNextRTCM(t *testing.T) {
	in := []byte{0xD3, 0x00, 0x04, 0x11, 0x22, 0x33, 0x44, 0xAA, 0xBB, 0xCC}
	r := NewReader(bytes.NewReader(in))
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Kind != KindRTCM || len(f.Payload) != 4 {
		t.Fatalf("frame = %v payload % x", f.Kind, f.Payload)
	}
	if r.Offset() != int64(len(in)) {
		t.Fatalf("offset = %d, want %d", r.Offset(), len(in))
	}
}

func TestNextJSON(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("{\"fix\":3}\n$GPGGA,1,2,3*4A\r\n")))
	f, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f.Kind != KindJSON || string(f.Payload) != `{"fix":3}` {
		t.Fatalf("frame = %v %q", f.Kind, f.Payload)
	}
	f, err = r.Next()
	if err != nil || f.Kind != KindNMEA {
		t.Fatalf("second frame = %v / %v", f, err)
	}
}

func TestNextTruncated(t *testing.T) {
	full := makeUBX(0x01, 0x07, make([]byte, 92))
	r := NewReader(bytes.NewReader(full[:20]))
	_, err := r.Next()
	var trunc *TruncatedError
	if !errors.As(err, &trunc) {
		t.Fatalf("err = %v, want TruncatedError", err)
	}
}

func TestNextAlwaysAdvances(t *testing.T) {
	// Junk, a bare 0xB5 with bad magic, junk again: the reader must make
	// progress on every call until the stream drains.
	in := []byte{0x00, 0xFF, 0xB5, 0x41, 0x07, 0xAA}
	r := NewReader(bytes.NewReader(in))
	last := int64(0)
	for {
		_, err := r.Next()
		if err != nil {
			break
		}
		if r.Offset() <= last {
			t.Fatalf("offset did not advance past %d", last)
		}
		last = r.Offset()
	}
	if last != int64(len(in)) {
		t.Fatalf("consumed %d bytes, want %d", last, len(in))
	}
}
