// Package bits provides the bit extraction primitives shared by every
// protocol decoder: closed-range extraction from a single storage unit,
// arbitrary-width extraction from armored payloads, and the 30-bit word
// numbering used by GPS navigation subframes.
package bits

import "math/big"

// Bits returns the unsigned value of the closed bit range [hi, lo] of word,
// where bit 0 is the most significant of totalWidth bits. hi must not exceed
// lo and lo must be inside the word.
func Bits(word uint64, totalWidth, hi, lo int) uint64 {
	width := lo - hi + 1
	shift := totalWidth - lo - 1
	return (word >> uint(shift)) & mask64(width)
}

// Insert writes v into the closed bit range [hi, lo] of word, the inverse of
// Bits. Bits of v above the range width are discarded.
func Insert(word uint64, totalWidth, hi, lo int, v uint64) uint64 {
	width := lo - hi + 1
	shift := totalWidth - lo - 1
	m := mask64(width) << uint(shift)
	return (word &^ m) | ((v << uint(shift)) & m)
}

// Extract reads width bits starting at the MSB-numbered position start from a
// payload of totalBits bits. The boolean is false when start lies at or past
// the end of the payload: the field is not present at all. A field whose tail
// runs past the end yields the available bits left-shifted to the declared
// width, so short optional trailing fields decode as zero-padded values.
func Extract(payload *big.Int, totalBits, start, width int) (*big.Int, bool) {
	if start >= totalBits {
		return nil, false
	}
	out := new(big.Int)
	shift := totalBits - start - width
	if shift >= 0 {
		out.Rsh(payload, uint(shift))
		out.And(out, maskBig(width))
		return out, true
	}
	out.And(payload, maskBig(totalBits-start))
	out.Lsh(out, uint(-shift))
	return out, true
}

// ExtractU64 is Extract for fields of at most 64 bits.
func ExtractU64(payload *big.Int, totalBits, start, width int) (uint64, bool) {
	v, ok := Extract(payload, totalBits, start, width)
	if !ok {
		return 0, false
	}
	return v.Uint64(), true
}

// SignExtend interprets the low width bits of v as twos complement.
func SignExtend(v uint64, width int) int64 {
	if v&(1<<uint(width-1)) != 0 {
		return int64(v) - (1 << uint(width))
	}
	return int64(v)
}

// Word30 returns the closed range [b0, b1] of a GPS subframe, with bits
// numbered 1..300 across ten 30-bit words held in the low bits of each
// element. A range never spans two words; split fields go through Multi30.
func Word30(words []uint32, b0, b1 int) uint64 {
	i := (b0 - 1) / 30
	rel0 := b0 - 30*i
	rel1 := b1 - 30*i
	width := rel1 - rel0 + 1
	shift := 30 - rel1
	return (uint64(words[i]) >> uint(shift)) & mask64(width)
}

// Multi30 concatenates the given [b0, b1] ranges most-significant part first
// and optionally sign-extends the result over the full concatenated width.
func Multi30(words []uint32, parts [][2]int, signed bool) int64 {
	var acc uint64
	var total int
	for _, p := range parts {
		w := p[1] - p[0] + 1
		acc = acc<<uint(w) | Word30(words, p[0], p[1])
		total += w
	}
	if signed {
		return SignExtend(acc, total)
	}
	return int64(acc)
}

func mask64(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (1 << uint(width)) - 1
}

func maskBig(width int) *big.Int {
	m := big.NewInt(1)
	m.Lsh(m, uint(width))
	return m.Sub(m, big.NewInt(1))
}
