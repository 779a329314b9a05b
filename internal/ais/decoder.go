package ais

import (
	"fmt"
	"math/big"

	"github.com/kwan3217/globetrotter/internal/bits"
	"github.com/kwan3217/globetrotter/internal/schema"
)

// UnknownTypeError reports a message type with no registered layout. The
// caller counts it and moves on.
type UnknownTypeError struct {
	Type int
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no layout for message type %d", e.Type)
}

// ExtKey selects an application-specific layout for binary messages: the
// (type, DAC, FID) triple addresses disjoint payload schemas.
type ExtKey struct {
	Type int
	DAC  int
	FID  int
}

var extended = map[ExtKey]*schema.BitLayout{}

// RegisterExtended installs a layout for a binary (type, DAC, FID) triple.
// Call before decoding starts; the registry is read-only afterwards.
func RegisterExtended(k ExtKey, l *schema.BitLayout) {
	extended[k] = l
}

// Decode decodes one complete, dearmored payload into a record, dispatching
// on the leading 6-bit message type.
func Decode(payload *big.Int, totalBits int) (*schema.Record, error) {
	t64, ok := bits.ExtractU64(payload, totalBits, 0, 6)
	if !ok {
		return nil, fmt.Errorf("payload of %d bits has no message type", totalBits)
	}
	t := int(t64)
	var l *schema.BitLayout
	switch t {
	case 1, 2, 3:
		l = posA
	case 4, 11:
		l = base
	case 5:
		l = static
	case 6, 8:
		return decodeBinary(t, payload, totalBits)
	case 15:
		l = interrogation
	case 18:
		l = posB
	case 21:
		l = aton
	case 24:
		if part, _ := bits.ExtractU64(payload, totalBits, 38, 2); part == 0 {
			l = staticA
		} else {
			l = staticB
		}
	default:
		return nil, &UnknownTypeError{Type: t}
	}
	rec, err := l.Decode(payload, totalBits)
	if rec != nil {
		rec.Protocol = "ais"
	}
	return rec, err
}

// decodeBinary handles types 6 and 8: decode the generic frame, then either
// re-decode with a registered (dac, fid) layout or keep the application
// payload as hex.
func decodeBinary(t int, payload *big.Int, totalBits int) (*schema.Record, error) {
	generic := broadcast
	dataStart := 56
	if t == 6 {
		generic = addressed
		dataStart = 88
	}
	rec, err := generic.Decode(payload, totalBits)
	if err != nil {
		return nil, err
	}
	key := ExtKey{Type: t, DAC: int(rec.Int("dac")), FID: int(rec.Int("fid"))}
	if ext := extended[key]; ext != nil {
		rec, err = ext.Decode(payload, totalBits)
		if rec != nil {
			rec.Protocol = "ais"
		}
		return rec, err
	}
	if totalBits > dataStart {
		v, _ := bits.Extract(payload, totalBits, dataStart, totalBits-dataStart)
		rec.Fields["data"] = fmt.Sprintf("%0*x", (totalBits-dataStart+3)/4, v)
	}
	rec.Protocol = "ais"
	return rec, nil
}

// Decode parses one encapsulated sentence body, reassembling fragments as
// needed. A nil record with nil error means the message is still incomplete.
func (s *Session) Decode(body []byte) (*schema.Record, error) {
	sent, err := ParseSentence(string(body))
	if err != nil {
		return nil, err
	}
	payload, totalBits, err := s.payloadFor(sent)
	if err != nil || payload == nil {
		return nil, err
	}
	return Decode(payload, totalBits)
}
