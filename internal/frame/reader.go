// Package frame splits a raw receiver byte stream into protocol frames. The
// reader dispatches on the leading byte of each frame, validates checksums
// where the protocol defines them, and guarantees that every call consumes
// at least one byte so a corrupt stream can never stall the import.
package frame

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
)

// Kind tags the protocol family a frame belongs to.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindNMEA
	KindUBX
	KindRTCM
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindNMEA:
		return "nmea"
	case KindUBX:
		return "ubx"
	case KindRTCM:
		return "rtcm"
	case KindJSON:
		return "json"
	}
	return "unrecognized"
}

// Frame is one protocol-delimited unit of the stream. Raw holds every byte
// consumed for the frame, framing included; Payload is the protocol body
// (UBX payload, NMEA text between '$' and '*', RTCM payload, JSON line).
// A non-nil Err means the frame was consumed but must not be decoded.
type Frame struct {
	Kind    Kind
	Offset  int64
	Raw     []byte
	Payload []byte
	Class   byte // UBX only
	ID      byte // UBX only
	Err     error
}

const maxSentence = 1024
const maxJSONLine = 64 * 1024

// Reader is the frame demultiplexer for one stream. It is single-goroutine
// state; concurrent imports use one Reader per file.
type Reader struct {
	br     *bufio.Reader
	offset int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// Offset reports the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.offset }

// Next reads one frame. io.EOF means a clean end of stream on a frame
// boundary; a *TruncatedError means the stream ended inside a frame. Both
// stop the caller; neither invalidates frames already returned.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset
	b, err := r.br.ReadByte()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	r.offset++
	switch b {
	case '$', '!':
		// '!' leads encapsulated sentences (AIVDM); same framing, same checksum.
		return r.nextNMEA(start, b)
	case 0xB5:
		return r.nextUBX(start)
	case 0xD3:
		return r.nextRTCM(start)
	case '{':
		return r.nextJSON(start)
	}
	return &Frame{Kind: KindUnrecognized, Offset: start, Raw: []byte{b}}, nil
}

func (r *Reader) readByte(start int64) (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, &TruncatedError{Offset: start, Want: 1}
	}
	r.offset++
	return b, nil
}

func (r *Reader) readFull(start int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	m, err := io.ReadFull(r.br, buf)
	r.offset += int64(m)
	if err != nil {
		return nil, &TruncatedError{Offset: start, Want: n - m}
	}
	return buf, nil
}

func (r *Reader) nextNMEA(start int64, lead byte) (*Frame, error) {
	raw := []byte{lead}
	var body []byte
	for {
		b, err := r.readByte(start)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
		if b == '*' {
			break
		}
		if b == '\n' {
			// Sentence transmitted without a checksum.
			return &Frame{Kind: KindNMEA, Offset: start, Raw: raw, Payload: trimCR(body)}, nil
		}
		body = append(body, b)
		if len(raw) > maxSentence {
			return &Frame{Kind: KindUnrecognized, Offset: start, Raw: raw, Err: ErrOversizeSentence}, nil
		}
	}

	f := &Frame{Kind: KindNMEA, Offset: start, Raw: raw, Payload: body}
	if p, err := r.br.Peek(1); err == nil && (p[0] == '\r' || p[0] == '\n') {
		// '*' immediately followed by the terminator: no checksum to verify.
		r.skipEOL(f)
		return f, nil
	}
	ck, err := r.readFull(start, 2)
	if err != nil {
		return nil, err
	}
	f.Raw = append(f.Raw, ck...)
	r.skipEOL(f)
	want := XorChecksum(body)
	got, perr := strconv.ParseUint(string(ck), 16, 8)
	if perr != nil || byte(got) != want {
		f.Err = &ChecksumError{Offset: start, Got: uint16(got), Want: uint16(want)}
	}
	return f, nil
}

func (r *Reader) skipEOL(f *Frame) {
	for i := 0; i < 2; i++ {
		p, err := r.br.Peek(1)
		if err != nil || (p[0] != '\r' && p[0] != '\n') {
			return
		}
		b, _ := r.br.ReadByte()
		r.offset++
		f.Raw = append(f.Raw, b)
		if b == '\n' {
			return
		}
	}
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

func (r *Reader) nextUBX(start int64) (*Frame, error) {
	b2, err := r.readByte(start)
	if err != nil {
		return nil, err
	}
	if b2 != 0x62 {
		// Bad second magic byte: exactly the two bytes read are consumed.
		return &Frame{Kind: KindUnrecognized, Offset: start, Raw: []byte{0xB5, b2}}, nil
	}
	hdr, err := r.readFull(start, 4)
	if err != nil {
		return nil, err
	}
	plen := int(binary.LittleEndian.Uint16(hdr[2:]))
	rest, err := r.readFull(start, plen+2)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, 0, 6+plen+2)
	raw = append(raw, 0xB5, 0x62)
	raw = append(raw, hdr...)
	raw = append(raw, rest...)
	f := &Frame{
		Kind:    KindUBX,
		Offset:  start,
		Raw:     raw,
		Payload: rest[:plen],
		Class:   hdr[0],
		ID:      hdr[1],
	}
	ckA, ckB := Fletcher8(hdr, rest[:plen])
	if ckA != rest[plen] || ckB != rest[plen+1] {
		f.Err = &ChecksumError{
			Offset: start,
			Got:    uint16(rest[plen])<<8 | uint16(rest[plen+1]),
			Want:   uint16(ckA)<<8 | uint16(ckB),
		}
	}
	return f, nil
}

func (r *Reader) nextRTCM(start int64) (*Frame, error) {
	hdr, err := r.readFull(start, 2)
	if err != nil {
		return nil, err
	}
	plen := int(hdr[0]&0x03)<<8 | int(hdr[1])
	rest, err := r.readFull(start, plen+3)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, 0, 3+plen+3)
	raw = append(raw, 0xD3)
	raw = append(raw, hdr...)
	raw = append(raw, rest...)
	// CRC24Q over the frame is not verified; the length framing is exact, so
	// a corrupt frame surfaces as a decode failure downstream.
	return &Frame{Kind: KindRTCM, Offset: start, Raw: raw, Payload: rest[:plen]}, nil
}

func (r *Reader) nextJSON(start int64) (*Frame, error) {
	raw := []byte{'{'}
	for {
		b, err := r.readByte(start)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
		if b == '\n' {
			return &Frame{Kind: KindJSON, Offset: start, Raw: raw, Payload: trimCR(raw[:len(raw)-1])}, nil
		}
		if len(raw) > maxJSONLine {
			return &Frame{Kind: KindUnrecognized, Offset: start, Raw: raw, Err: ErrOversizeSentence}, nil
		}
	}
}
