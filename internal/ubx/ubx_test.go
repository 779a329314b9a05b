package ubx

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

func putU2(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func putU4(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func putI4(b []byte, off int, v int32)  { binary.LittleEndian.PutUint32(b[off:], uint32(v)) }

func TestDecodePVT(t *testing.T) {
	p := make([]byte, 92)
	putU4(p, 0, 250200000)
	putU2(p, 4, 2023)
	p[6], p[7], p[8], p[9], p[10] = 7, 4, 12, 34, 56
	p[11] = 0x07 // date, time and fully resolved
	putI4(p, 16, -500)
	p[20] = Fix3D
	p[21] = 0x01 // gnssFixOK
	p[23] = 17
	putI4(p, 24, -1044580000)
	putI4(p, 28, 399900000)
	putI4(p, 32, 1609344) // 1609.344 m
	putU2(p, 76, 150)
	putU2(p, 78, 3<<1) // correction age bucket 3

	rec, err := Decode(ClassNAV, 0x07, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Protocol != "ubx" || rec.Packet != "nav_pvt" {
		t.Fatalf("record tagged %s/%s", rec.Protocol, rec.Packet)
	}
	if got := rec.Float("itow"); got != 250200 {
		t.Errorf("itow = %v, want 250200", got)
	}
	if got := rec.Float("lon"); math.Abs(got-(-104.458)) > 1e-9 {
		t.Errorf("lon = %v, want -104.458", got)
	}
	if got := rec.Float("lat"); math.Abs(got-39.99) > 1e-9 {
		t.Errorf("lat = %v, want 39.99", got)
	}
	if got := rec.Float("height"); math.Abs(got-1609.344) > 1e-9 {
		t.Errorf("height = %v, want 1609.344", got)
	}
	if rec.Int("fix_type") != Fix3D || rec.Int("num_sv") != 17 {
		t.Errorf("fix_type/num_sv = %d/%d", rec.Int("fix_type"), rec.Int("num_sv"))
	}
	if got := rec.Float("p_dop"); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("p_dop = %v, want 1.5", got)
	}
	if got := rec.Float("last_correction_age"); got != 5 {
		t.Errorf("last_correction_age = %v, want 5", got)
	}
	want := time.Date(2023, 7, 4, 12, 34, 56, -500, time.UTC)
	utc, ok := rec.Fields["utc"].(time.Time)
	if !ok || !utc.Equal(want) {
		t.Errorf("utc = %v, want %v", rec.Fields["utc"], want)
	}
	// Date/time components fold into utc and are not persisted themselves.
	if _, present := rec.Fields["year"]; present {
		t.Error("year survived as a field")
	}
}

func TestDecodePVTUnresolvedTime(t *testing.T) {
	p := make([]byte, 92)
	p[11] = 0x01 // date valid, time not
	rec, err := Decode(ClassNAV, 0x07, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, present := rec.Fields["utc"]; present {
		t.Error("utc set without a valid time")
	}
}

func TestDecodeHPPOSLLHFoldsHighPrecision(t *testing.T) {
	p := make([]byte, 36)
	putU4(p, 4, 1000)
	putI4(p, 8, 1000000000) // 100 degrees
	putI4(p, 16, 123456)    // 123.456 m
	p[24] = 0xCE // lon fine part, -50
	p[26] = 7    // height fine part

	rec, err := Decode(ClassNAV, 0x14, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("lon"); math.Abs(got-99.999999950) > 1e-12 {
		t.Errorf("lon = %.12f, want 99.999999950", got)
	}
	if got := rec.Float("height"); math.Abs(got-123.4567) > 1e-9 {
		t.Errorf("height = %v, want 123.4567", got)
	}
	if _, present := rec.Fields["lon_hp"]; present {
		t.Error("lon_hp survived as a field")
	}
}

func TestDecodeSATBlocks(t *testing.T) {
	p := make([]byte, 8+2*12)
	putU4(p, 0, 5000)
	p[5] = 2 // numSvs
	// block 0: GPS PRN 13, used, cno 45
	b := p[8:]
	b[0], b[1], b[2] = GnssGPS, 13, 45
	b[3] = 62
	putU2(b, 4, 180)
	putU4(b, 8, 1<<3|4) // svUsed, quality 4
	// block 1: GLONASS slot 3, not used
	b = p[20:]
	b[0], b[1], b[2] = GnssGLONASS, 3, 22
	putU4(b, 8, 2)

	rec, err := Decode(ClassNAV, 0x35, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Repeat != 2 {
		t.Fatalf("Repeat = %d, want 2", rec.Repeat)
	}
	ids := rec.Blocks["sv_id"]
	if ids[0].(int64) != 13 || ids[1].(int64) != 3 {
		t.Errorf("sv_id column = %v", ids)
	}
	used := rec.Blocks["sv_used"]
	if used[0].(int64) != 1 || used[1].(int64) != 0 {
		t.Errorf("sv_used column = %v", used)
	}
	if elev := rec.Blocks["elev"][0].(int64); elev != 62 {
		t.Errorf("elev = %d, want 62", elev)
	}
}

func TestDecodeSATBadLength(t *testing.T) {
	_, err := Decode(ClassNAV, 0x35, make([]byte, 8+5))
	var le *schema.LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LayoutError", err)
	}
}

func TestDecodeSFRBX(t *testing.T) {
	words := []uint32{0x22C34F18, 0x1EE2A9B4, 0x1DEADBEE}
	p := make([]byte, 8+4*len(words))
	p[0] = GnssGPS
	p[1] = 7
	p[4] = byte(len(words))
	for i, w := range words {
		putU4(p, 8+4*i, w)
	}
	rec, err := Decode(ClassRXM, 0x13, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	col := rec.Blocks["dwrd"]
	if len(col) != len(words) {
		t.Fatalf("%d dwrd entries, want %d", len(col), len(words))
	}
	for i, w := range words {
		if col[i].(int64) != int64(w) {
			t.Errorf("dwrd[%d] = %#x, want %#x", i, col[i], w)
		}
	}
}

func TestDecodeTimTPInvalidQErr(t *testing.T) {
	p := make([]byte, 16)
	putU4(p, 0, 123000)
	putI4(p, 8, -42)
	p[14] = 1 << 4 // qErr invalid
	rec, err := Decode(ClassTIM, 0x01, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("q_err"); !math.IsNaN(got) {
		t.Errorf("q_err = %v, want NaN", got)
	}

	p[14] = 0
	rec, err = Decode(ClassTIM, 0x01, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := rec.Float("q_err"); got != -42 {
		t.Errorf("q_err = %v, want -42", got)
	}
}

func TestDecodeESFMeasScalesBySensor(t *testing.T) {
	p := make([]byte, 8+2*4+4)
	putU4(p, 0, 777)
	putU2(p, 4, 2<<11|1<<3) // two readings, calib ttag present
	putU4(p, 8, 16<<24|2048)
	putU4(p, 12, 12<<24|0xFFFF9C) // -100 raw
	putU4(p, 16, 4000)

	rec, err := Decode(ClassESF, 0x02, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	vals := rec.Blocks["value"]
	if got := vals[0].(float64); math.Abs(got-2.0) > 1e-9 {
		t.Errorf("x accel = %v, want 2.0 m/s^2", got)
	}
	if got := vals[1].(float64); math.Abs(got-(-1.0)) > 1e-9 {
		t.Errorf("gyro temperature = %v, want -1.0 degC", got)
	}
	types := rec.Blocks["data_type"]
	if types[0].(int64) != 16 || types[1].(int64) != 12 {
		t.Errorf("data_type column = %v", types)
	}
	if got := rec.Float("calib_ttag"); got != 4 {
		t.Errorf("calib_ttag = %v, want 4", got)
	}
}

func TestDecodeMonVER(t *testing.T) {
	p := make([]byte, 40+2*30)
	copy(p, "EXT CORE 1.00 (61b2dd)")
	copy(p[30:], "00190000")
	copy(p[40:], "ROM BASE 0x118B2060")
	copy(p[70:], "FWVER=HPG 1.32")
	rec, err := Decode(ClassMON, 0x04, p)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Fields["sw_version"] != "EXT CORE 1.00 (61b2dd)" {
		t.Errorf("sw_version = %q", rec.Fields["sw_version"])
	}
	ext := rec.Blocks["extension"]
	if len(ext) != 2 || ext[1].(string) != "FWVER=HPG 1.32" {
		t.Errorf("extension column = %v", ext)
	}
}

// Layouts assembled by initializer functions must be bound before the
// message table captures them.
func TestRegistryLayoutsBound(t *testing.T) {
	for _, m := range messages {
		if m.Layout == nil {
			t.Errorf("%s registered without a layout", m.Title)
		}
	}
}

func TestDecodeUnknownMessage(t *testing.T) {
	_, err := Decode(ClassNAV, 0x99, nil)
	var ue *UnknownMessageError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnknownMessageError", err)
	}
	if ue.Class != ClassNAV || ue.ID != 0x99 {
		t.Errorf("error carries %#x/%#x", ue.Class, ue.ID)
	}
}

func TestName(t *testing.T) {
	if got := Name(ClassNAV, 0x07); got != "NAV-PVT" {
		t.Errorf("Name = %q, want NAV-PVT", got)
	}
	if got := Name(0x77, 0x01); got != "0x77-0x01" {
		t.Errorf("Name = %q, want hex fallback", got)
	}
}

func TestGnssName(t *testing.T) {
	if GnssName(GnssBeiDou) != "BeiDou" || GnssName(42) != "unknown" {
		t.Error("GnssName mapping wrong")
	}
}
