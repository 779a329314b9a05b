package frame

// Fletcher8 computes the two-byte UBX checksum over the concatenation of the
// given slices. Both accumulators run mod 256; the protocol covers class, id,
// length and payload.
func Fletcher8(bufs ...[]byte) (ckA, ckB byte) {
	for _, buf := range bufs {
		for _, b := range buf {
			ckA += b
			ckB += ckA
		}
	}
	return ckA, ckB
}

// XorChecksum computes the NMEA checksum: XOR of every byte between the
// leading '$' and the '*', exclusive.
func XorChecksum(body []byte) byte {
	var ck byte
	for _, b := range body {
		ck ^= b
	}
	return ck
}
