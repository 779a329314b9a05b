package schema

import "github.com/kwan3217/globetrotter/internal/bits"

// ScaleFunc converts a raw field value into its engineering value. Raw
// integer kinds arrive as int64 (already sign extended for signed kinds),
// floats as float64, strings as string, byte arrays as []byte. A nil
// ScaleFunc is the identity.
type ScaleFunc func(raw any) any

// Mul scales a numeric raw value by a constant factor.
func Mul(factor float64) ScaleFunc {
	return func(raw any) any {
		return AsFloat(raw) * factor
	}
}

// Signed reinterprets the low width bits of an unsigned raw value as twos
// complement, then scales by factor. Used for signed sub-unit bitfields,
// which always extract unsigned.
func Signed(width int, factor float64) ScaleFunc {
	return func(raw any) any {
		v := bits.SignExtend(uint64(raw.(int64)), width)
		if factor == 1 {
			return v
		}
		return float64(v) * factor
	}
}

// AsFloat widens a raw numeric value.
func AsFloat(raw any) float64 {
	switch v := raw.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// AsInt narrows a raw numeric value.
func AsInt(raw any) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
