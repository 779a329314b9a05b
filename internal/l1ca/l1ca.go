// Package l1ca decodes GPS L1 C/A legacy navigation subframes from the ten
// 30-bit words delivered by the receiver (parity already checked and
// stripped to word alignment upstream). Bit positions use the interface
// specification's 1..300 numbering; split fields list their ranges most
// significant part first.
package l1ca

import (
	"fmt"
	"math"
	"strings"

	"github.com/kwan3217/globetrotter/internal/bits"
	"github.com/kwan3217/globetrotter/internal/schema"
)

const preamble = 0x8B

func p(b0, b1 int) [][2]int { return [][2]int{{b0, b1}} }

func pow2(e int) schema.ScaleFunc { return schema.Mul(math.Pow(2, float64(e))) }

func u(name string, b0, b1 int) schema.BitField {
	return schema.BitField{Name: name, Parts: p(b0, b1)}
}

func us(name string, b0, b1 int, scale schema.ScaleFunc) schema.BitField {
	return schema.BitField{Name: name, Parts: p(b0, b1), Scale: scale}
}

func ss(name string, b0, b1 int, scale schema.ScaleFunc) schema.BitField {
	return schema.BitField{Name: name, Parts: p(b0, b1), Signed: true, Scale: scale}
}

func split(name string, hi [2]int, lo [2]int, signed bool, scale schema.ScaleFunc) schema.BitField {
	return schema.BitField{Name: name, Parts: [][2]int{hi, lo}, Signed: signed, Scale: scale}
}

// uraNominal maps the URA index to nominal accuracy in meters; index 15
// means the satellite should not be used.
func uraNominal(raw any) any {
	n := schema.AsInt(raw)
	switch {
	case n <= 6:
		return math.Pow(2, 1+float64(n)/2)
	case n < 15:
		return math.Pow(2, float64(n)-2)
	}
	return math.NaN()
}

// common holds the TLM and HOW fields shared by every subframe.
func common() []schema.BitField {
	return []schema.BitField{
		{Name: "preamble", Parts: p(1, 8), Omit: true},
		u("tlm", 9, 22),
		u("integrity_status", 24, 24),
		u("tow_count", 31, 47),
		u("alert", 48, 48),
		u("antispoof", 49, 49),
		u("subframe", 50, 52),
	}
}

func withCommon(name string, fields []schema.BitField, fixup func(*schema.Record) error) *schema.BitLayout {
	all := append(common(), fields...)
	return &schema.BitLayout{Name: name, Fields: all, Fixup: fixup}
}

var subframe1 = withCommon("l1ca_subframe1", []schema.BitField{
	u("wn", 61, 70),
	u("l2_code", 71, 72),
	us("ura", 73, 76, uraNominal),
	u("sv_health", 77, 82),
	split("iodc", [2]int{83, 84}, [2]int{211, 218}, false, nil),
	u("l2p_data", 91, 91),
	ss("t_gd", 197, 204, pow2(-31)),
	us("t_oc", 219, 234, pow2(4)),
	ss("a_f2", 241, 248, pow2(-55)),
	ss("a_f1", 249, 264, pow2(-43)),
	ss("a_f0", 271, 292, pow2(-31)),
}, healthFixup)

// healthFixup flags LNAV data unusable when the MSB of the 6-bit health
// word is set.
func healthFixup(r *schema.Record) error {
	if v, ok := r.Get("sv_health"); ok {
		r.Fields["lnav_data_bad"] = schema.AsInt(v)&0x20 != 0
	}
	return nil
}

var subframe2 = withCommon("l1ca_subframe2", []schema.BitField{
	u("iode", 61, 68),
	ss("c_rs", 69, 84, pow2(-5)),
	ss("delta_n", 91, 106, pow2(-43)),
	split("m_0", [2]int{107, 114}, [2]int{121, 144}, true, pow2(-31)),
	ss("c_uc", 151, 166, pow2(-29)),
	split("e", [2]int{167, 174}, [2]int{181, 204}, false, pow2(-33)),
	ss("c_us", 211, 226, pow2(-29)),
	split("sqrt_a", [2]int{227, 234}, [2]int{241, 264}, false, pow2(-19)),
	us("t_oe", 271, 286, pow2(4)),
	u("fit_interval", 287, 287),
	us("aodo", 288, 292, schema.Mul(900)),
}, func(r *schema.Record) error {
	// Semi-major axis from its transmitted square root.
	sqrtA := r.Float("sqrt_a")
	r.Fields["a"] = sqrtA * sqrtA
	return nil
})

var subframe3 = withCommon("l1ca_subframe3", []schema.BitField{
	ss("c_ic", 61, 76, pow2(-29)),
	split("omega_0", [2]int{77, 84}, [2]int{91, 114}, true, pow2(-31)),
	ss("c_is", 121, 136, pow2(-29)),
	split("i_0", [2]int{137, 144}, [2]int{151, 174}, true, pow2(-31)),
	ss("c_rc", 181, 196, pow2(-5)),
	split("omega", [2]int{197, 204}, [2]int{211, 234}, true, pow2(-31)),
	ss("omega_dot", 241, 264, pow2(-43)),
	u("iode", 271, 278),
	ss("idot", 279, 292, pow2(-43)),
}, nil)

// page45 carries only the dispatch fields of subframes 4 and 5; the page
// body is decoded by the layout the page id selects.
var page45 = withCommon("l1ca_page", []schema.BitField{
	u("data_id", 61, 62),
	u("sv_id", 63, 68),
}, nil)

var almanac = withCommon("l1ca_almanac", []schema.BitField{
	u("data_id", 61, 62),
	u("sv_id", 63, 68),
	us("e", 69, 84, pow2(-21)),
	us("t_oa", 91, 98, pow2(12)),
	ss("delta_i", 99, 114, pow2(-19)),
	ss("omega_dot", 121, 136, pow2(-38)),
	u("sv_health", 137, 144),
	us("sqrt_a", 151, 174, pow2(-11)),
	ss("omega_0", 181, 204, pow2(-23)),
	ss("omega", 211, 234, pow2(-23)),
	ss("m_0", 241, 264, pow2(-23)),
	split("a_f0", [2]int{271, 278}, [2]int{290, 292}, true, pow2(-20)),
	ss("a_f1", 279, 288, pow2(-38)),
}, nil)

// Decode parses one subframe. The caller supplies the ten words exactly as
// the receiver reports them, 30 significant bits each.
func Decode(words []uint32) (*schema.Record, error) {
	if len(words) != 10 {
		return nil, fmt.Errorf("subframe has %d words, want 10", len(words))
	}
	if got := bits.Word30(words, 1, 8); got != preamble {
		return nil, fmt.Errorf("bad telemetry preamble %#x", got)
	}
	sf := bits.Word30(words, 50, 52)
	switch sf {
	case 1:
		return finish(subframe1.DecodeWords(words))
	case 2:
		return finish(subframe2.DecodeWords(words))
	case 3:
		return finish(subframe3.DecodeWords(words))
	case 4, 5:
		return decodePage(words)
	}
	return nil, fmt.Errorf("subframe id %d out of range", sf)
}

func decodePage(words []uint32) (*schema.Record, error) {
	svID := bits.Word30(words, 63, 68)
	switch {
	case svID >= 1 && svID <= 32:
		return finish(almanac.DecodeWords(words))
	case svID == 51:
		return decodeHealthPage(words)
	case svID == 55:
		return decodeSpecialMessage(words)
	}
	rec, err := page45.DecodeWords(words)
	if err != nil {
		return nil, err
	}
	rec.Packet = "l1ca_reserved"
	return finish(rec, nil)
}

// decodeHealthPage reads page 51: almanac reference time plus the 6-bit
// health words of satellites 1..24, four to a word.
func decodeHealthPage(words []uint32) (*schema.Record, error) {
	rec, err := page45.DecodeWords(words)
	if err != nil {
		return nil, err
	}
	rec.Packet = "l1ca_sv_health"
	rec.Fields["t_oa"] = float64(bits.Word30(words, 69, 76)) * 4096
	rec.Fields["wn_a"] = int64(bits.Word30(words, 77, 84))
	col := make([]any, 0, 24)
	for i := 0; i < 24; i++ {
		b0 := 91 + 30*(i/4) + 6*(i%4)
		col = append(col, int64(bits.Word30(words, b0, b0+5)))
	}
	rec.Blocks = map[string][]any{"sv_health": col}
	rec.Repeat = 24
	return finish(rec, nil)
}

// decodeSpecialMessage reads page 55: 22 eight-bit characters packed into
// the data bits of words 3..10.
func decodeSpecialMessage(words []uint32) (*schema.Record, error) {
	rec, err := page45.DecodeWords(words)
	if err != nil {
		return nil, err
	}
	rec.Packet = "l1ca_special_message"
	var starts []int
	starts = append(starts, 69, 77)
	for k := 0; k < 6; k++ {
		starts = append(starts, 91+30*k, 99+30*k, 107+30*k)
	}
	starts = append(starts, 271, 279)
	var sb strings.Builder
	for _, b0 := range starts {
		c := byte(bits.Word30(words, b0, b0+7))
		if c == 0 {
			break
		}
		sb.WriteByte(c)
	}
	rec.Fields["message"] = strings.TrimRight(sb.String(), " ")
	return finish(rec, nil)
}

func finish(rec *schema.Record, err error) (*schema.Record, error) {
	if err != nil {
		return nil, err
	}
	rec.Protocol = "l1ca"
	return rec, nil
}
