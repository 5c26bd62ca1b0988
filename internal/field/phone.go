package field

import (
	"fmt"
	"strings"
)

// padNibble terminates an odd-length digit string's packed BCD encoding.
const padNibble = 0xF

// EncodePhoneBCD packs a digit string (ASCII '0'-'9') two digits per byte,
// high nibble first. An odd number of digits is padded with padNibble in
// the low nibble of the final byte.
func EncodePhoneBCD(digits string) ([]byte, error) {
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("field: non-digit rune %q in phone digits", r)
		}
	}
	n := len(digits)
	out := make([]byte, (n+1)/2)
	for i := 0; i < len(out); i++ {
		hi := digits[i*2] - '0'
		var lo byte = padNibble
		if i*2+1 < n {
			lo = digits[i*2+1] - '0'
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

// DecodePhoneBCD unpacks a packed-BCD phone digit string. Padding nibbles
// (0xF) are skipped; any other non-digit nibble (0xA-0xE) is reported as
// a silent failure ("", false) per the emergency-resilience principle in
// spec §4.5 — a malformed phone field must never block decoding of the
// rest of the payload.
func DecodePhoneBCD(data []byte) (string, bool) {
	var b strings.Builder
	for _, by := range data {
		for _, nib := range [2]byte{by >> 4, by & 0x0F} {
			switch {
			case nib <= 9:
				b.WriteByte('0' + nib)
			case nib == padNibble:
				// padding, skip
			default:
				return "", false
			}
		}
	}
	return b.String(), true
}

// EncodeLastDigits keeps only the trailing n digits of digits before
// BCD-encoding them (used when a fixed-width BCD field cannot hold a
// full international number).
func EncodeLastDigits(digits string, n int) ([]byte, error) {
	if n < len(digits) {
		digits = digits[len(digits)-n:]
	}
	return EncodePhoneBCD(digits)
}
