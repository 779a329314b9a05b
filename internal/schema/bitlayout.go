package schema

import (
	"math/big"

	"github.com/kwan3217/globetrotter/internal/bits"
)

// BitField describes one field of a pure-bitfield packet, addressed by bit
// position rather than byte offset. Two addressings exist: Start/Width is
// MSB-first numbering over a single payload integer (AIS), Parts is the
// 1..300 subframe word numbering (GPS L1 C/A), listing the split ranges of a
// field most-significant part first.
type BitField struct {
	Name         string
	Start, Width int
	Parts        [][2]int
	Signed       bool
	Wide         bool // raw value handed to Scale as *big.Int
	Scale        ScaleFunc
	Omit         bool
}

// B is shorthand for an unsigned bit field.
func B(name string, start, width int) BitField {
	return BitField{Name: name, Start: start, Width: width}
}

// BS is B with a scale.
func BS(name string, start, width int, scale ScaleFunc) BitField {
	return BitField{Name: name, Start: start, Width: width, Scale: scale}
}

// BSigned is a twos-complement field scaled after sign extension.
func BSigned(name string, start, width int, scale ScaleFunc) BitField {
	return BitField{Name: name, Start: start, Width: width, Signed: true, Scale: scale}
}

// BitLayout is the parse plan for a pure-bitfield packet. There is no byte
// geometry to compile; the field list is the plan.
type BitLayout struct {
	Name   string
	Fields []BitField
	Fixup  func(*Record) error
}

// Decode extracts every field from a payload of totalBits bits. A field
// starting past the end of a short payload is recorded as absent, not an
// error; messages are routinely transmitted truncated.
func (l *BitLayout) Decode(payload *big.Int, totalBits int) (*Record, error) {
	rec := &Record{
		Packet: l.Name,
		RawLen: (totalBits + 7) / 8,
		Fields: make(map[string]any, len(l.Fields)),
	}
	for _, f := range l.Fields {
		if f.Wide {
			v, ok := bits.Extract(payload, totalBits, f.Start, f.Width)
			if !ok {
				rec.Fields[f.Name] = nil
				continue
			}
			if f.Scale != nil {
				rec.Fields[f.Name] = f.Scale(v)
			} else {
				rec.Fields[f.Name] = v
			}
			continue
		}
		u, ok := bits.ExtractU64(payload, totalBits, f.Start, f.Width)
		if !ok {
			rec.Fields[f.Name] = nil
			continue
		}
		var raw any
		if f.Signed {
			raw = bits.SignExtend(u, f.Width)
		} else {
			raw = int64(u)
		}
		if f.Scale != nil {
			raw = f.Scale(raw)
		}
		rec.Fields[f.Name] = raw
	}
	if l.Fixup != nil {
		if err := l.Fixup(rec); err != nil {
			return nil, err
		}
	}
	l.dropOmitted(rec)
	return rec, nil
}

// DecodeWords extracts every field from ten 30-bit subframe words using the
// Parts addressing.
func (l *BitLayout) DecodeWords(words []uint32) (*Record, error) {
	rec := &Record{
		Packet: l.Name,
		RawLen: len(words) * 4,
		Fields: make(map[string]any, len(l.Fields)),
	}
	for _, f := range l.Fields {
		raw := any(bits.Multi30(words, f.Parts, f.Signed))
		if f.Scale != nil {
			raw = f.Scale(raw)
		}
		rec.Fields[f.Name] = raw
	}
	if l.Fixup != nil {
		if err := l.Fixup(rec); err != nil {
			return nil, err
		}
	}
	l.dropOmitted(rec)
	return rec, nil
}

// Omitted fields are decoded for the fixup's benefit and stripped after it
// has run.
func (l *BitLayout) dropOmitted(rec *Record) {
	for _, f := range l.Fields {
		if f.Omit {
			delete(rec.Fields, f.Name)
		}
	}
}

// Persisted returns the materialized field names in declaration order.
func (l *BitLayout) Persisted() []string {
	var out []string
	for _, f := range l.Fields {
		if !f.Omit {
			out = append(out, f.Name)
		}
	}
	return out
}
