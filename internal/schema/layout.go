package schema

const (
	secHeader = iota
	secBlock
	secFooter
)

type group struct {
	offset int
	kind   Kind
	len    int
}

type plan struct {
	name     string
	section  int
	group    int
	hi, lo   int
	scale    ScaleFunc
	sentinel *int64
	omit     bool
}

// Layout is the compiled parse plan for one packet type. It is immutable
// after Compile and shared by every frame of that type.
type Layout struct {
	Name      string
	HeaderLen int
	Stride    int // 0 when there is no repeating section
	FooterLen int

	groups [3][]group
	plans  []plan

	// Fixup runs after a successful decode, over the whole record.
	Fixup func(*Record) error
}

// Compile turns an ordered field table into a Layout. Section boundaries are
// inferred from the Repeat flag: the first repeating field opens the block
// section, the first non-repeating field after it opens the footer.
func Compile(name string, fields []Field) (*Layout, error) {
	l := &Layout{Name: name}
	var cursor [3]int
	section := secHeader
	lastKind := Kind(-1)
	lastHi := -1
	lastGroup := -1
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		if seen[f.Name] {
			return nil, &CompileError{Packet: name, Field: f.Name, Reason: "duplicate field name"}
		}
		seen[f.Name] = true

		switch {
		case f.Repeat && section == secHeader:
			section = secBlock
			lastHi, lastGroup, lastKind = -1, -1, Kind(-1)
		case f.Repeat && section == secFooter:
			return nil, &CompileError{Packet: name, Field: f.Name, Reason: "repeating field after footer began"}
		case !f.Repeat && section == secBlock:
			section = secFooter
			lastHi, lastGroup, lastKind = -1, -1, Kind(-1)
		}

		width := kindWidth[f.Kind]
		if f.Kind == CH || f.Kind == BY {
			if f.Len <= 0 {
				return nil, &CompileError{Packet: name, Field: f.Name, Reason: "character/byte field needs an explicit length"}
			}
			width = f.Len
			if f.Hi >= 0 {
				return nil, &CompileError{Packet: name, Field: f.Name, Reason: "bit range on a string field"}
			}
		}
		if width == 0 {
			return nil, &CompileError{Packet: name, Field: f.Name, Reason: "unknown raw kind"}
		}
		if f.Hi >= 0 && (f.Lo > f.Hi || f.Hi >= width*8) {
			return nil, &CompileError{Packet: name, Field: f.Name, Reason: "bit range outside storage unit"}
		}

		gi := -1
		if f.Hi >= 0 && lastGroup >= 0 && f.Kind == lastKind && f.Lo > lastHi {
			// Same storage unit as the previous bitfield: mask, don't re-unpack.
			gi = lastGroup
		} else {
			l.groups[section] = append(l.groups[section], group{offset: cursor[section], kind: f.Kind, len: width})
			gi = len(l.groups[section]) - 1
			cursor[section] += width
		}
		if f.Hi >= 0 {
			lastKind, lastHi, lastGroup = f.Kind, f.Hi, gi
		} else {
			lastKind, lastHi, lastGroup = Kind(-1), -1, -1
		}

		l.plans = append(l.plans, plan{
			name: f.Name, section: section, group: gi,
			hi: f.Hi, lo: f.Lo,
			scale: f.Scale, sentinel: f.Sentinel, omit: f.Omit,
		})
	}

	l.HeaderLen = cursor[secHeader]
	l.Stride = cursor[secBlock]
	l.FooterLen = cursor[secFooter]
	return l, nil
}

// MustCompile is Compile for statically declared tables, where a failure is
// an authoring bug.
func MustCompile(name string, fields []Field) *Layout {
	l, err := Compile(name, fields)
	if err != nil {
		panic(err)
	}
	return l
}

// Persisted returns the field names materialized for storage, in declaration
// order, split into header/footer scalars and block columns.
func (l *Layout) Persisted() (scalars, columns []string) {
	for _, p := range l.plans {
		if p.omit {
			continue
		}
		if p.section == secBlock {
			columns = append(columns, p.name)
		} else {
			scalars = append(scalars, p.name)
		}
	}
	return scalars, columns
}
