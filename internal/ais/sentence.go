package ais

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentence is one parsed AIVDM/AIVDO sentence body (the text between the
// leading '!' and the checksum '*').
type Sentence struct {
	Tag      string // AIVDM or AIVDO
	NFrag    int
	IFrag    int
	GroupID  string // empty for single-sentence messages
	Channel  string
	Armored  string
	FillBits int
}

// ParseSentence splits an encapsulated sentence body. The checksum has
// already been verified by the frame reader.
func ParseSentence(body string) (Sentence, error) {
	var s Sentence
	fields := strings.Split(body, ",")
	if len(fields) != 7 {
		return s, fmt.Errorf("sentence has %d fields, want 7", len(fields))
	}
	tag := fields[0]
	if !strings.HasSuffix(tag, "VDM") && !strings.HasSuffix(tag, "VDO") {
		return s, fmt.Errorf("not an encapsulated VHF sentence: %q", tag)
	}
	nfrag, err := strconv.Atoi(fields[1])
	if err != nil || nfrag < 1 {
		return s, fmt.Errorf("bad fragment count %q", fields[1])
	}
	ifrag, err := strconv.Atoi(fields[2])
	if err != nil || ifrag < 1 || ifrag > nfrag {
		return s, fmt.Errorf("bad fragment index %q of %d", fields[2], nfrag)
	}
	fill, err := strconv.Atoi(fields[6])
	if err != nil || fill < 0 || fill > 5 {
		return s, fmt.Errorf("bad fill bit count %q", fields[6])
	}
	if ifrag < nfrag && fill != 0 {
		return s, fmt.Errorf("non-final fragment carries %d fill bits", fill)
	}
	s.Tag = tag
	s.NFrag = nfrag
	s.IFrag = ifrag
	s.GroupID = fields[3]
	s.Channel = fields[4]
	s.Armored = fields[5]
	s.FillBits = fill
	return s, nil
}
