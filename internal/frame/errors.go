package frame

import "fmt"

// TruncatedError is returned when the stream ends inside a frame whose
// declared length promised more bytes. At end of input this is a clean stop
// condition for the caller, not a failure of the preceding frames.
type TruncatedError struct {
	Offset int64 // frame start
	Want   int   // bytes still expected
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated frame at offset %d, %d bytes short", e.Offset, e.Want)
}

// ChecksumError marks a fully consumed frame whose checksum failed. The
// frame is dropped; the stream position has already advanced past it.
type ChecksumError struct {
	Offset int64
	Got    uint16
	Want   uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch at offset %d: got %#04x, want %#04x", e.Offset, e.Got, e.Want)
}

// ErrOversizeSentence marks a text sentence that ran past the scan bound
// without a terminator. The scanned bytes are consumed.
var ErrOversizeSentence = fmt.Errorf("unterminated sentence exceeds %d bytes", maxSentence)
