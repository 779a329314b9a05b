// Package ais decodes AIS VHF messages: the 6-bit ASCII armoring, the
// multi-sentence fragment reassembly, and the per-type bit layouts.
package ais

import (
	"fmt"
	"math/big"
	"strings"
)

// Dearmor maps one armored payload character to its 6-bit value.
func Dearmor(c byte) (byte, error) {
	code := int(c) - 48
	if code > 40 {
		code -= 8
	}
	if code < 0 || code > 63 {
		return 0, fmt.Errorf("armored character %q out of range", c)
	}
	return byte(code), nil
}

// DearmorPayload folds an armored payload into one bit-addressable integer,
// most significant character first, and discards the trailing fill bits the
// wrapping sentence declared. Returns the payload and its bit length.
func DearmorPayload(armored string, fill int) (*big.Int, int, error) {
	payload := new(big.Int)
	for i := 0; i < len(armored); i++ {
		v, err := Dearmor(armored[i])
		if err != nil {
			return nil, 0, err
		}
		payload.Lsh(payload, 6)
		payload.Or(payload, big.NewInt(int64(v)))
	}
	bits := 6 * len(armored)
	if fill < 0 || fill > 5 || fill > bits {
		return nil, 0, fmt.Errorf("fill bit count %d out of range", fill)
	}
	payload.Rsh(payload, uint(fill))
	return payload, bits - fill, nil
}

// sixbitCharset is the ITU 6-bit character set; code 0 ('@') terminates.
const sixbitCharset = "@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_ !\"#$%&'()*+,-./0123456789:;<=>?"

// sixbitString decodes a width-bit big integer as packed 6-bit characters,
// stopping at the '@' terminator and stripping trailing spaces.
func sixbitString(v *big.Int, width int) string {
	var sb strings.Builder
	for shift := width - 6; shift >= 0; shift -= 6 {
		code := new(big.Int).Rsh(v, uint(shift)).Int64() & 0x3F
		if code == 0 {
			break
		}
		sb.WriteByte(sixbitCharset[code])
	}
	return strings.TrimRight(sb.String(), " ")
}
