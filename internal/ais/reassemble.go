package ais

import "math/big"

// maxPendingGroups bounds the memory held for fragment groups that never
// complete; inserting a new group beyond the cap evicts the oldest.
const maxPendingGroups = 8

type pendingGroup struct {
	key   string
	slots []string
	have  int
}

// Assembler reassembles multi-sentence messages for one stream. Fragments
// sharing a group id fill pre-sized slots; the armored strings are joined in
// fragment order only once every slot is filled, and the group is forgotten
// at that point. An Assembler is owned by a single decode pass and is not
// safe for concurrent use.
type Assembler struct {
	pending []*pendingGroup
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Pending reports the number of incomplete fragment groups.
func (a *Assembler) Pending() int { return len(a.pending) }

// Add registers one sentence. When the sentence completes a message the
// joined armored payload is returned with done=true; otherwise the fragment
// is parked and done is false.
func (a *Assembler) Add(s Sentence) (armored string, done bool) {
	if s.NFrag == 1 {
		return s.Armored, true
	}
	key := s.GroupID + "/" + s.Channel
	g := a.lookup(key)
	if g == nil || len(g.slots) != s.NFrag {
		if g != nil {
			// Same group id reused with a different fragment count: the old
			// message is lost, start over.
			a.remove(key)
		}
		g = &pendingGroup{key: key, slots: make([]string, s.NFrag)}
		if len(a.pending) >= maxPendingGroups {
			a.pending = a.pending[1:]
		}
		a.pending = append(a.pending, g)
	}
	if g.slots[s.IFrag-1] == "" {
		g.have++
	}
	g.slots[s.IFrag-1] = s.Armored
	if g.have < len(g.slots) {
		return "", false
	}
	a.remove(key)
	joined := ""
	for _, part := range g.slots {
		joined += part
	}
	return joined, true
}

func (a *Assembler) lookup(key string) *pendingGroup {
	for _, g := range a.pending {
		if g.key == key {
			return g
		}
	}
	return nil
}

func (a *Assembler) remove(key string) {
	for i, g := range a.pending {
		if g.key == key {
			a.pending = append(a.pending[:i], a.pending[i+1:]...)
			return
		}
	}
}

// Session couples an Assembler with the message tables: one Session per
// stream being decoded.
type Session struct {
	asm *Assembler
}

func NewSession() *Session {
	return &Session{asm: NewAssembler()}
}

// payloadFor runs a parsed sentence through reassembly and dearmoring.
// Incomplete fragments return (nil, 0, nil).
func (s *Session) payloadFor(sent Sentence) (*big.Int, int, error) {
	armored, done := s.asm.Add(sent)
	if !done {
		return nil, 0, nil
	}
	return DearmorPayload(armored, sent.FillBits)
}
