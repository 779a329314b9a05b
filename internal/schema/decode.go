package schema

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Record is one decoded frame: scalar values for header and footer fields,
// column-oriented sequences for block fields, and source metadata filled in
// by the caller that read the frame.
type Record struct {
	Packet   string
	Protocol string
	Offset   int64
	RawLen   int
	Repeat   int
	Fields   map[string]any
	Blocks   map[string][]any
}

// Get returns a scalar field value. The second result is false when the
// field is absent (sentinel hit or never decoded).
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Int returns a scalar field as int64, 0 when absent.
func (r *Record) Int(name string) int64 {
	v, ok := r.Get(name)
	if !ok {
		return 0
	}
	return AsInt(v)
}

// Float returns a scalar field as float64, NaN when absent.
func (r *Record) Float(name string) float64 {
	v, ok := r.Get(name)
	if !ok {
		return math.NaN()
	}
	return AsFloat(v)
}

// Decode applies the layout to one frame payload. The payload length must
// satisfy len == HeaderLen + Stride*n + FooterLen exactly; any remainder is a
// LayoutError and the frame is rejected whole.
func (l *Layout) Decode(payload []byte) (*Record, error) {
	n := len(payload)
	repeat := 0
	if l.Stride > 0 {
		rem := n - l.HeaderLen - l.FooterLen
		if rem < 0 || rem%l.Stride != 0 {
			return nil, &LayoutError{Packet: l.Name, FrameLen: n,
				HeaderLen: l.HeaderLen, Stride: l.Stride, FooterLen: l.FooterLen}
		}
		repeat = rem / l.Stride
	} else if n != l.HeaderLen+l.FooterLen {
		return nil, &LayoutError{Packet: l.Name, FrameLen: n,
			HeaderLen: l.HeaderLen, Stride: l.Stride, FooterLen: l.FooterLen}
	}

	rec := &Record{
		Packet: l.Name,
		RawLen: n,
		Repeat: repeat,
		Fields: make(map[string]any),
		Blocks: make(map[string][]any),
	}

	head := unpackAll(l.groups[secHeader], payload[:l.HeaderLen])
	foot := unpackAll(l.groups[secFooter], payload[n-l.FooterLen:])
	for _, p := range l.plans {
		switch p.section {
		case secHeader:
			rec.Fields[p.name] = p.finish(head[p.group])
		case secFooter:
			rec.Fields[p.name] = p.finish(foot[p.group])
		case secBlock:
			rec.Blocks[p.name] = make([]any, 0, repeat)
		}
	}
	for row := 0; row < repeat; row++ {
		base := l.HeaderLen + row*l.Stride
		vals := unpackAll(l.groups[secBlock], payload[base:base+l.Stride])
		for _, p := range l.plans {
			if p.section != secBlock {
				continue
			}
			rec.Blocks[p.name] = append(rec.Blocks[p.name], p.finish(vals[p.group]))
		}
	}

	if l.Fixup != nil {
		if err := l.Fixup(rec); err != nil {
			return nil, fmt.Errorf("%s fixup: %w", l.Name, err)
		}
	}
	// Omitted fields exist for geometry and fixups only; drop them after
	// the fixup has seen them.
	for _, p := range l.plans {
		if !p.omit {
			continue
		}
		if p.section == secBlock {
			delete(rec.Blocks, p.name)
		} else {
			delete(rec.Fields, p.name)
		}
	}
	return rec, nil
}

func (p plan) finish(raw any) any {
	if p.hi >= 0 {
		u := uint64(raw.(int64))
		width := p.hi - p.lo + 1
		raw = int64((u >> uint(p.lo)) & ((1 << uint(width)) - 1))
	}
	if p.sentinel != nil {
		if v, ok := raw.(int64); ok && v == *p.sentinel {
			return nil
		}
	}
	if p.scale != nil {
		return p.scale(raw)
	}
	return raw
}

func unpackAll(groups []group, b []byte) []any {
	vals := make([]any, len(groups))
	for i, g := range groups {
		vals[i] = unpackOne(g, b[g.offset:g.offset+g.len])
	}
	return vals
}

func unpackOne(g group, b []byte) any {
	switch g.kind {
	case U1, X1:
		return int64(b[0])
	case I1:
		return int64(int8(b[0]))
	case U2, X2:
		return int64(binary.LittleEndian.Uint16(b))
	case I2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case U4, X4:
		return int64(binary.LittleEndian.Uint32(b))
	case I4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	case R4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case R8:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case CH:
		return strings.TrimRight(string(b), "\x00")
	case BY:
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	return nil
}

// Encode builds a frame payload from raw (unscaled) field values: scalars
// for header/footer fields, equal-length columns for block fields. It is the
// inverse of Decode for identity scales and exists chiefly so layouts can be
// round-trip tested against themselves.
func (l *Layout) Encode(scalars map[string]any, columns map[string][]any) ([]byte, error) {
	repeat := 0
	for _, col := range columns {
		repeat = len(col)
		break
	}
	for name, col := range columns {
		if len(col) != repeat {
			return nil, fmt.Errorf("encode %s: column %s length %d, want %d", l.Name, name, len(col), repeat)
		}
	}
	payload := make([]byte, l.HeaderLen+l.Stride*repeat+l.FooterLen)

	for _, p := range l.plans {
		g := l.groups[p.section][p.group]
		switch p.section {
		case secHeader:
			if err := packOne(payload[g.offset:g.offset+g.len], g, p, scalars[p.name]); err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", l.Name, p.name, err)
			}
		case secFooter:
			base := l.HeaderLen + l.Stride*repeat
			if err := packOne(payload[base+g.offset:base+g.offset+g.len], g, p, scalars[p.name]); err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", l.Name, p.name, err)
			}
		case secBlock:
			col := columns[p.name]
			for row := 0; row < repeat; row++ {
				base := l.HeaderLen + row*l.Stride
				if err := packOne(payload[base+g.offset:base+g.offset+g.len], g, p, col[row]); err != nil {
					return nil, fmt.Errorf("encode %s.%s[%d]: %w", l.Name, p.name, row, err)
				}
			}
		}
	}
	return payload, nil
}

func packOne(b []byte, g group, p plan, v any) error {
	if v == nil {
		return nil
	}
	if p.hi >= 0 {
		u := uint64(AsInt(v)) << uint(p.lo)
		cur := uint64(AsInt(unpackOne(g, b)))
		v = int64(cur | u)
	}
	switch g.kind {
	case U1, X1, I1:
		b[0] = byte(AsInt(v))
	case U2, X2, I2:
		binary.LittleEndian.PutUint16(b, uint16(AsInt(v)))
	case U4, X4, I4:
		binary.LittleEndian.PutUint32(b, uint32(AsInt(v)))
	case R4:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(AsFloat(v))))
	case R8:
		binary.LittleEndian.PutUint64(b, math.Float64bits(AsFloat(v)))
	case CH:
		copy(b, v.(string))
	case BY:
		copy(b, v.([]byte))
	default:
		return fmt.Errorf("unsupported kind %s", g.kind)
	}
	return nil
}
