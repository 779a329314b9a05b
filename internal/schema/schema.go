// Package schema holds the declarative packet descriptions and the compiler
// that turns them into executable parse plans. A packet type is written once
// as an ordered field table; Compile derives the byte geometry and unpack
// plan at startup, and the compiled layout is reused for every frame.
package schema

import "fmt"

// Kind identifies the raw storage unit of a byte-aligned field. The names
// and widths follow the u-blox interface description conventions.
type Kind int

const (
	U1 Kind = iota // unsigned 8-bit
	I1             // signed 8-bit
	X1             // 8-bit bitfield carrier
	U2             // unsigned 16-bit little-endian
	I2             // signed 16-bit little-endian
	X2             // 16-bit bitfield carrier
	U4             // unsigned 32-bit little-endian
	I4             // signed 32-bit little-endian
	X4             // 32-bit bitfield carrier
	R4             // IEEE 754 single
	R8             // IEEE 754 double
	CH             // fixed-length character array
	BY             // fixed-length byte array
)

var kindWidth = map[Kind]int{
	U1: 1, I1: 1, X1: 1,
	U2: 2, I2: 2, X2: 2,
	U4: 4, I4: 4, X4: 4,
	R4: 4, R8: 8,
}

func (k Kind) String() string {
	switch k {
	case U1:
		return "U1"
	case I1:
		return "I1"
	case X1:
		return "X1"
	case U2:
		return "U2"
	case I2:
		return "I2"
	case X2:
		return "X2"
	case U4:
		return "U4"
	case I4:
		return "I4"
	case X4:
		return "X4"
	case R4:
		return "R4"
	case R8:
		return "R8"
	case CH:
		return "CH"
	case BY:
		return "BY"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Field describes one field of a byte-aligned packet type.
//
// A field with Hi >= 0 is a bitfield inside its storage unit, numbered LSB=0
// the way the interface manuals write them. Consecutive bitfields of the same
// Kind with ascending, non-overlapping ranges share one storage unit; the
// compiler unpacks the unit once and masks it per field.
type Field struct {
	Name     string
	Kind     Kind
	Len      int // byte length, CH and BY only
	Hi, Lo   int // bit range within the unit; Hi < 0 means the whole unit
	Repeat   bool
	Scale    ScaleFunc
	Sentinel *int64 // raw value meaning "not available"
	Omit     bool   // parsed but not persisted
}

// Bit marks f as the [hi, lo] bitfield of its storage unit.
func (f Field) Bit(hi, lo int) Field {
	f.Hi, f.Lo = hi, lo
	return f
}

// F is shorthand for a whole-unit field.
func F(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind, Hi: -1, Lo: -1}
}

// FS is F with a scale.
func FS(name string, kind Kind, scale ScaleFunc) Field {
	f := F(name, kind)
	f.Scale = scale
	return f
}

// CompileError reports a malformed field table. It is fatal: layouts are
// compiled at process start, before any frame is read.
type CompileError struct {
	Packet string
	Field  string
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema %s field %s: %s", e.Packet, e.Field, e.Reason)
}

// LayoutError reports a frame whose length is inconsistent with its compiled
// layout. The frame is dropped; the stream continues.
type LayoutError struct {
	Packet    string
	FrameLen  int
	HeaderLen int
	Stride    int
	FooterLen int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout %s: frame length %d does not fit %d+%d*n+%d",
		e.Packet, e.FrameLen, e.HeaderLen, e.Stride, e.FooterLen)
}
