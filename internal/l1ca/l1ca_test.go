package l1ca

import (
	"math"
	"testing"
)

// set writes v into subframe bits [b0, b1], the test-side inverse of the
// reader. Ranges must stay inside one word.
func set(words []uint32, b0, b1 int, v uint64) {
	i := (b0 - 1) / 30
	rel1 := b1 - 30*i
	width := b1 - b0 + 1
	shift := 30 - rel1
	words[i] |= uint32((v & (1<<uint(width) - 1)) << uint(shift))
}

func newSubframe(id uint64) []uint32 {
	words := make([]uint32, 10)
	set(words, 1, 8, 0x8B)
	set(words, 31, 47, 12345)
	set(words, 50, 52, id)
	return words
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := Decode(make([]uint32, 9)); err == nil {
		t.Error("nine words accepted")
	}
	words := newSubframe(1)
	words[0] = 0x74 << 22 // clobber the preamble
	if _, err := Decode(words); err == nil {
		t.Error("bad preamble accepted")
	}
	if _, err := Decode(newSubframe(6)); err == nil {
		t.Error("subframe id 6 accepted")
	}
}

func TestDecodeSubframe1(t *testing.T) {
	words := newSubframe(1)
	set(words, 61, 70, 186) // ten-bit week
	set(words, 73, 76, 1)   // URA index 1: 2.8 m
	set(words, 77, 82, 0x20|5)
	set(words, 83, 84, 0x2)   // IODC high bits
	set(words, 211, 218, 0x5A) // IODC low bits
	set(words, 241, 248, 0xFF) // a_f2 = -1 * 2^-55

	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Packet != "l1ca_subframe1" {
		t.Fatalf("Packet = %q", rec.Packet)
	}
	if rec.Int("wn") != 186 {
		t.Errorf("wn = %d, want 186", rec.Int("wn"))
	}
	if rec.Int("tow_count") != 12345 {
		t.Errorf("tow_count = %d, want 12345", rec.Int("tow_count"))
	}
	if got := rec.Float("ura"); math.Abs(got-2.8284271247461903) > 1e-12 {
		t.Errorf("ura = %v, want 2^1.5", got)
	}
	if rec.Int("iodc") != 0x25A {
		t.Errorf("iodc = %#x, want 0x25a", rec.Int("iodc"))
	}
	if got := rec.Float("a_f2"); math.Abs(got-(-1*math.Pow(2, -55))) > 1e-70 {
		t.Errorf("a_f2 = %v, want -2^-55", got)
	}
	if bad, _ := rec.Fields["lnav_data_bad"].(bool); !bad {
		t.Error("lnav_data_bad not set for health MSB")
	}
}

func TestDecodeSubframe2(t *testing.T) {
	words := newSubframe(2)
	// sqrt_a = 5153.75 m^0.5 -> raw = 5153.75 * 2^19
	raw := uint64(5153.75 * (1 << 19))
	set(words, 227, 234, raw>>24)
	set(words, 241, 264, raw&0xFFFFFF)
	set(words, 271, 286, 37800>>4)
	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("sqrt_a"); math.Abs(got-5153.75) > 1e-9 {
		t.Errorf("sqrt_a = %v, want 5153.75", got)
	}
	if got := rec.Float("a"); math.Abs(got-5153.75*5153.75) > 1e-6 {
		t.Errorf("a = %v, want sqrt_a squared", got)
	}
	if got := rec.Float("t_oe"); got != 37792 {
		// 37800 is not a multiple of 16; the field truncates.
		t.Errorf("t_oe = %v, want 37792", got)
	}
}

func TestDecodeSubframe3SignedSplit(t *testing.T) {
	words := newSubframe(3)
	// omega_0 = -1: all ones across the 8+24 split.
	set(words, 77, 84, 0xFF)
	set(words, 91, 114, 0xFFFFFF)
	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("omega_0"); math.Abs(got-(-math.Pow(2, -31))) > 1e-45 {
		t.Errorf("omega_0 = %v, want -2^-31", got)
	}
}

func TestDecodeAlmanacPage(t *testing.T) {
	words := newSubframe(5)
	set(words, 61, 62, 1)
	set(words, 63, 68, 7) // SV 7 almanac
	set(words, 151, 174, uint64(5153.0*(1<<11)))
	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Packet != "l1ca_almanac" {
		t.Fatalf("Packet = %q", rec.Packet)
	}
	if rec.Int("sv_id") != 7 {
		t.Errorf("sv_id = %d, want 7", rec.Int("sv_id"))
	}
	if got := rec.Float("sqrt_a"); math.Abs(got-5153.0) > 1e-9 {
		t.Errorf("sqrt_a = %v, want 5153", got)
	}
}

func TestDecodeHealthPage(t *testing.T) {
	words := newSubframe(4)
	set(words, 63, 68, 51)
	set(words, 77, 84, 86) // almanac week
	for i := 0; i < 24; i++ {
		b0 := 91 + 30*(i/4) + 6*(i%4)
		set(words, b0, b0+5, uint64(i))
	}
	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Packet != "l1ca_sv_health" {
		t.Fatalf("Packet = %q", rec.Packet)
	}
	col := rec.Blocks["sv_health"]
	if len(col) != 24 {
		t.Fatalf("%d health entries, want 24", len(col))
	}
	for i, v := range col {
		if v.(int64) != int64(i) {
			t.Fatalf("entry %d = %v", i, v)
		}
	}
}

func TestDecodeSpecialMessage(t *testing.T) {
	words := newSubframe(4)
	set(words, 63, 68, 55)
	msg := "SEE YOU LATER"
	starts := []int{69, 77}
	for k := 0; k < 6; k++ {
		starts = append(starts, 91+30*k, 99+30*k, 107+30*k)
	}
	starts = append(starts, 271, 279)
	for i, b0 := range starts {
		if i < len(msg) {
			set(words, b0, b0+7, uint64(msg[i]))
		}
	}
	rec, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Fields["message"] != msg {
		t.Fatalf("message = %q, want %q", rec.Fields["message"], msg)
	}
}

func TestDecodeReservedPage(t *testing.T) {
	words := newSubframe(4)
	set(words, 63, 68, 60)
	rec, err := Decode(words)
	if err != nil || rec.Packet != "l1ca_reserved" {
		t.Fatalf("reserved page: %v / %v", rec, err)
	}
}

func TestLookup(t *testing.T) {
	sat, ok := Lookup(13)
	if !ok || sat.SVN != 43 || sat.Block != "IIR" {
		t.Fatalf("Lookup(13) = %+v, %v", sat, ok)
	}
	if _, ok := Lookup(33); ok {
		t.Fatal("Lookup(33) found a satellite")
	}
}
