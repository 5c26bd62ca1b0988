package payload

import (
	"fmt"
	"unicode/utf8"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/bitio"
	"github.com/bitpack/bitpack/internal/field"
	"github.com/bitpack/bitpack/internal/wire"
)

// TextLocationPayload combines a short text message with a GPS fix
// (spec §3): flags byte, optional length-prefixed sender/recipient IDs,
// fixed-point latitude and longitude, then UTF-8 text to the end of the
// payload.
type TextLocationPayload struct {
	Sender       string
	HasSender    bool
	Recipient    string
	HasRecipient bool
	Latitude     float64
	Longitude    float64
	Text         string
}

func (TextLocationPayload) Type() wire.MessageType { return wire.TextLocation }

func (p TextLocationPayload) SizeInBytes() int { return len(p.Encode()) }

// Encode serializes p: flags byte, length-prefixed sender/recipient (only
// the ones flagged present), lat(4B) + lon(4B), then raw UTF-8 text.
func (p TextLocationPayload) Encode() []byte {
	var flags byte
	if p.HasSender {
		flags |= 1 << 7
	}
	if p.HasRecipient {
		flags |= 1 << 6
	}

	buf := []byte{flags}
	if p.HasSender {
		buf = append(buf, byte(len(p.Sender)))
		buf = append(buf, p.Sender...)
	}
	if p.HasRecipient {
		buf = append(buf, byte(len(p.Recipient)))
		buf = append(buf, p.Recipient...)
	}

	var latlon [8]byte
	lat, _ := field.EncodeLatitude(p.Latitude)
	lon, _ := field.EncodeLongitude(p.Longitude)
	bitio.PutInt32(latlon[0:4], lat)
	bitio.PutInt32(latlon[4:8], lon)
	buf = append(buf, latlon[:]...)

	buf = append(buf, p.Text...)
	return buf
}

// DecodeTextLocationPayload parses a TextLocationPayload. The flags byte's
// sender/recipient bits must be consistent with the length-prefixed IDs
// that follow (spec §4.5); length-prefix underflow is InsufficientBytes.
func DecodeTextLocationPayload(data []byte) (TextLocationPayload, error) {
	if len(data) < 1 {
		return TextLocationPayload{}, fmt.Errorf("payload: text_location requires at least 1 byte: %w", biterr.ErrInsufficientBytes)
	}
	flags := data[0]
	p := TextLocationPayload{
		HasSender:    flags&(1<<7) != 0,
		HasRecipient: flags&(1<<6) != 0,
	}
	offset := 1

	if p.HasSender {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return TextLocationPayload{}, err
		}
		p.Sender = s
		offset = n
	}
	if p.HasRecipient {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return TextLocationPayload{}, err
		}
		p.Recipient = s
		offset = n
	}

	if offset+8 > len(data) {
		return TextLocationPayload{}, fmt.Errorf("payload: text_location gps fields truncated: %w", biterr.ErrInsufficientBytes)
	}
	p.Latitude = field.DecodeLatitude(bitio.Int32(data[offset : offset+4]))
	p.Longitude = field.DecodeLongitude(bitio.Int32(data[offset+4 : offset+8]))
	offset += 8

	text := data[offset:]
	if !utf8.Valid(text) {
		return TextLocationPayload{}, fmt.Errorf("payload: text_location text is not valid utf-8: %w", biterr.ErrUtf8Decode)
	}
	p.Text = string(text)

	return p, nil
}
