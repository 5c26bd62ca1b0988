package field

import "fmt"

// countryCodeTable maps the 3-bit shortcut codes 0x1-0x6 to their ITU
// country calling codes (spec §4.3). 0x0 is reserved/unused and 0x7
// means "custom", carried as two explicit BCD-encoded bytes.
var countryCodeTable = map[byte]int{
	0x1: 1,
	0x2: 44,
	0x3: 49,
	0x4: 33,
	0x5: 39,
	0x6: 90,
}

var countryCodeShortcut = map[int]byte{
	1:  0x1,
	44: 0x2,
	49: 0x3,
	33: 0x4,
	39: 0x5,
	90: 0x6,
}

const customCountryCode = 0x7

// domesticCountryCode is the country code implied when is_international
// is unset (spec §4.3): domestic traffic is always +90.
const domesticCountryCode = 90

// domesticDigitCount is the fixed national-number length carried for
// domestic (non-international) numbers.
const domesticDigitCount = 10

// EncodeInternationalBCD encodes a country code and national number into
// the wire form: header byte, optional 2-byte custom country code, then
// packed-BCD national digits. The international header bit is always
// set, even when the country code happens to be the domestic one;
// callers that want the compact domestic form should use
// EncodeDomesticBCD instead.
func EncodeInternationalBCD(countryCode int, nationalNumber string) ([]byte, error) {
	for _, r := range nationalNumber {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("field: non-digit rune %q in national number", r)
		}
	}

	digitBytes, err := EncodePhoneBCD(nationalNumber)
	if err != nil {
		return nil, err
	}
	pairCount := len(digitBytes)
	if pairCount > 0x0F {
		return nil, fmt.Errorf("field: national number too long for 4-bit pair count (%d bytes)", pairCount)
	}

	shortcut, known := countryCodeShortcut[countryCode]
	if !known {
		shortcut = customCountryCode
	}

	header := byte(0x80) | (byte(pairCount) << 3) | shortcut

	out := make([]byte, 0, 1+2+pairCount)
	out = append(out, header)

	if shortcut == customCountryCode {
		ccDigits := fmt.Sprintf("%d", countryCode)
		ccBytes, err := EncodePhoneBCD(ccDigits)
		if err != nil {
			return nil, err
		}
		if len(ccBytes) > 2 {
			return nil, fmt.Errorf("field: custom country code %d does not fit in 2 BCD bytes", countryCode)
		}
		padded := make([]byte, 2)
		padded[0] = 0xFF
		padded[1] = 0xFF
		copy(padded[2-len(ccBytes):], ccBytes)
		out = append(out, padded...)
	}

	out = append(out, digitBytes...)
	return out, nil
}

// EncodeDomesticBCD encodes the compact domestic form: is_international
// unset, country code implied as +90, exactly the trailing 10 digits of
// number are carried.
func EncodeDomesticBCD(number string) ([]byte, error) {
	digits := number
	if len(digits) > domesticDigitCount {
		digits = digits[len(digits)-domesticDigitCount:]
	}
	digitBytes, err := EncodePhoneBCD(digits)
	if err != nil {
		return nil, err
	}
	header := byte(len(digitBytes)) << 3 // is_international=0, country_code bits unused
	out := make([]byte, 0, 1+len(digitBytes))
	out = append(out, header)
	out = append(out, digitBytes...)
	return out, nil
}

// DecodeInternationalBCD decodes the wire form produced by
// EncodeInternationalBCD or EncodeDomesticBCD. It returns the resolved
// country code, the national number digit string, and the number of
// bytes consumed from data.
func DecodeInternationalBCD(data []byte) (countryCode int, nationalNumber string, consumed int, err error) {
	if len(data) < 1 {
		return 0, "", 0, fmt.Errorf("field: international BCD header truncated")
	}
	header := data[0]
	isIntl := header&0x80 != 0
	pairCount := int((header >> 3) & 0x0F)
	codeBits := header & 0x07

	offset := 1

	if !isIntl {
		if len(data) < offset+pairCount {
			return 0, "", 0, fmt.Errorf("field: domestic BCD body truncated")
		}
		digits, ok := DecodePhoneBCD(data[offset : offset+pairCount])
		if !ok {
			return 0, "", 0, fmt.Errorf("field: invalid BCD nibble in domestic number")
		}
		return domesticCountryCode, digits, offset + pairCount, nil
	}

	if codeBits == customCountryCode {
		if len(data) < offset+2 {
			return 0, "", 0, fmt.Errorf("field: custom country code truncated")
		}
		ccDigits, ok := DecodePhoneBCD(data[offset : offset+2])
		if !ok {
			return 0, "", 0, fmt.Errorf("field: invalid BCD nibble in custom country code")
		}
		var cc int
		if _, err := fmt.Sscanf(ccDigits, "%d", &cc); err != nil {
			return 0, "", 0, fmt.Errorf("field: malformed custom country code %q", ccDigits)
		}
		countryCode = cc
		offset += 2
	} else {
		cc, known := countryCodeTable[codeBits]
		if !known {
			return 0, "", 0, fmt.Errorf("field: unknown country code shortcut %#x", codeBits)
		}
		countryCode = cc
	}

	if len(data) < offset+pairCount {
		return 0, "", 0, fmt.Errorf("field: national number body truncated")
	}
	digits, ok := DecodePhoneBCD(data[offset : offset+pairCount])
	if !ok {
		return 0, "", 0, fmt.Errorf("field: invalid BCD nibble in national number")
	}
	return countryCode, digits, offset + pairCount, nil
}

// E164 formats a country code and national number as a "+"-prefixed
// E.164 string.
func E164(countryCode int, nationalNumber string) string {
	return fmt.Sprintf("+%d%s", countryCode, nationalNumber)
}
