package schema

import (
	"math"
	"testing"
)

// satLayout mimics a header + repeating block message with coalesced
// bitfields inside one 32-bit carrier.
func satLayout(t *testing.T) *Layout {
	t.Helper()
	l, err := Compile("test_sat", []Field{
		F("itow", U4),
		F("version", U1),
		F("num", U1),
		{Name: "reserved", Kind: U2, Hi: -1, Lo: -1, Omit: true},
		{Name: "gnss", Kind: U1, Hi: -1, Lo: -1, Repeat: true},
		{Name: "sv", Kind: U1, Hi: -1, Lo: -1, Repeat: true},
		{Name: "cno", Kind: U1, Hi: -1, Lo: -1, Repeat: true},
		{Name: "elev", Kind: I1, Hi: -1, Lo: -1, Repeat: true},
		{Name: "quality", Kind: X4, Hi: 2, Lo: 0, Repeat: true},
		{Name: "used", Kind: X4, Hi: 3, Lo: 3, Repeat: true},
		{Name: "health", Kind: X4, Hi: 5, Lo: 4, Repeat: true},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return l
}

func TestCompileGeometry(t *testing.T) {
	l := satLayout(t)
	if l.HeaderLen != 8 {
		t.Errorf("HeaderLen = %d, want 8", l.HeaderLen)
	}
	// Three consecutive X4 bitfields share one carrier: 1+1+1+1+4.
	if l.Stride != 8 {
		t.Errorf("Stride = %d, want 8", l.Stride)
	}
	if l.FooterLen != 0 {
		t.Errorf("FooterLen = %d, want 0", l.FooterLen)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name   string
		fields []Field
	}{
		{"duplicate name", []Field{F("a", U1), F("a", U2)}},
		{"string without length", []Field{{Name: "s", Kind: CH, Hi: -1, Lo: -1}}},
		{"repeat after footer", []Field{
			F("a", U1),
			{Name: "b", Kind: U1, Hi: -1, Lo: -1, Repeat: true},
			F("c", U1),
			{Name: "d", Kind: U1, Hi: -1, Lo: -1, Repeat: true},
		}},
		{"bit range outside unit", []Field{{Name: "x", Kind: X1, Hi: 9, Lo: 8}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile("bad", tc.fields); err == nil {
				t.Fatal("Compile succeeded, want error")
			}
		})
	}
}

func TestDecodeBlocks(t *testing.T) {
	l := satLayout(t)
	payload := []byte{
		0x10, 0x27, 0x00, 0x00, // itow = 10000
		1, 2, 0, 0, // version, num, reserved
		// row 0: gnss=0 sv=5 cno=41 elev=-3 flags: quality=4 used=1 health=1
		0, 5, 41, 0xFD, 0x1C, 0, 0, 0,
		// row 1: gnss=6 sv=11 cno=0 elev=10 flags: quality=1 used=0 health=2
		6, 11, 0, 10, 0x21, 0, 0, 0,
	}
	rec, err := l.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Int("itow") != 10000 {
		t.Errorf("itow = %d, want 10000", rec.Int("itow"))
	}
	if rec.Repeat != 2 {
		t.Fatalf("Repeat = %d, want 2", rec.Repeat)
	}
	wantCols := map[string][]int64{
		"gnss":    {0, 6},
		"sv":      {5, 11},
		"elev":    {-3, 10},
		"quality": {4, 1},
		"used":    {1, 0},
		"health":  {1, 2},
	}
	for name, want := range wantCols {
		col := rec.Blocks[name]
		if len(col) != len(want) {
			t.Fatalf("%s: %d rows, want %d", name, len(col), len(want))
		}
		for i := range want {
			if col[i].(int64) != want[i] {
				t.Errorf("%s[%d] = %v, want %d", name, i, col[i], want[i])
			}
		}
	}
}

func TestDecodeLengthInvariant(t *testing.T) {
	l := satLayout(t)
	for _, n := range []int{7, 9, 13, 8 + 8 + 3} {
		if _, err := l.Decode(make([]byte, n)); err == nil {
			t.Errorf("Decode of %d bytes succeeded, want layout error", n)
		}
	}
	// Zero repeats is valid.
	if rec, err := l.Decode(make([]byte, 8)); err != nil || rec.Repeat != 0 {
		t.Errorf("Decode of bare header: rec=%v err=%v", rec, err)
	}
}

func TestSentinelAbsence(t *testing.T) {
	sentinel := int64(0xFFFF)
	l, err := Compile("sent", []Field{
		{Name: "v", Kind: U2, Hi: -1, Lo: -1, Sentinel: &sentinel},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rec, err := l.Decode([]byte{0xFF, 0xFF})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := rec.Get("v"); ok {
		t.Error("sentinel value decoded as present")
	}
	rec, _ = l.Decode([]byte{0x34, 0x12})
	if rec.Int("v") != 0x1234 {
		t.Errorf("v = %d, want %d", rec.Int("v"), 0x1234)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := satLayout(t)
	scalars := map[string]any{
		"itow": int64(604800000), "version": int64(1), "num": int64(2), "reserved": int64(0),
	}
	columns := map[string][]any{
		"gnss":    {int64(0), int64(6)},
		"sv":      {int64(3), int64(22)},
		"cno":     {int64(44), int64(0)},
		"elev":    {int64(-90), int64(45)},
		"quality": {int64(7), int64(2)},
		"used":    {int64(1), int64(1)},
		"health":  {int64(2), int64(0)},
	}
	payload, err := l.Encode(scalars, columns)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(payload) != l.HeaderLen+2*l.Stride {
		t.Fatalf("payload length = %d, want %d", len(payload), l.HeaderLen+2*l.Stride)
	}
	rec, err := l.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for name, want := range scalars {
		if rec.Int(name) != want.(int64) {
			t.Errorf("%s = %d, want %d", name, rec.Int(name), want)
		}
	}
	for name, want := range columns {
		for i := range want {
			if rec.Blocks[name][i].(int64) != want[i].(int64) {
				t.Errorf("%s[%d] = %v, want %v", name, i, rec.Blocks[name][i], want[i])
			}
		}
	}
}

func TestScaleAndFixup(t *testing.T) {
	l, err := Compile("scaled", []Field{
		FS("lat", I4, Mul(1e-7)),
		FS("lon", I4, Mul(1e-7)),
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	l.Fixup = func(r *Record) error {
		r.Fields["sum"] = r.Float("lat") + r.Float("lon")
		return nil
	}
	payload, err := l.Encode(map[string]any{"lat": int64(255678000), "lon": int64(-801234000)}, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	rec, err := l.Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("lat"); math.Abs(got-25.5678) > 1e-9 {
		t.Errorf("lat = %v, want 25.5678", got)
	}
	if got := rec.Float("lon"); math.Abs(got+80.1234) > 1e-9 {
		t.Errorf("lon = %v, want -80.1234", got)
	}
	if _, ok := rec.Get("sum"); !ok {
		t.Error("fixup field missing")
	}
}
