package payload

import (
	"fmt"
	"unicode/utf8"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/wire"
)

// TextPayload is a short free-form message (spec §3): an optional sender
// and recipient identifier (length-prefixed, 1 byte each), followed by
// UTF-8 text running to the end of the payload. An absent recipient
// means broadcast. The same wire shape backs both the Compact TextShort
// type and the Standard-only TextExtended type; Extended selects the
// latter.
type TextPayload struct {
	Extended     bool // true: wire.TextExtended (Standard-only), false: wire.TextShort
	Sender       string // present iff HasSender
	HasSender    bool
	Recipient    string // present iff HasRecipient
	HasRecipient bool
	Text         string
}

func (p TextPayload) Type() wire.MessageType {
	if p.Extended {
		return wire.TextExtended
	}
	return wire.TextShort
}

func (p TextPayload) SizeInBytes() int { return len(p.Encode()) }

// Encode serializes p: flags byte, then length-prefixed sender/recipient
// (only the ones flagged present), then raw UTF-8 text.
func (p TextPayload) Encode() []byte {
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
	buf = append(buf, p.Text...)
	return buf
}

// DecodeTextPayload parses a TextPayload. Length-prefixed fields are
// strict: an underflow (prefix longer than the remaining buffer) is
// InsufficientBytes, and the trailing text must be valid UTF-8.
func DecodeTextPayload(data []byte, extended bool) (TextPayload, error) {
	if len(data) < 1 {
		return TextPayload{}, fmt.Errorf("payload: text requires at least 1 byte: %w", biterr.ErrInsufficientBytes)
	}
	flags := data[0]
	p := TextPayload{
		Extended:     extended,
		HasSender:    flags&(1<<7) != 0,
		HasRecipient: flags&(1<<6) != 0,
	}
	offset := 1

	if p.HasSender {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return TextPayload{}, err
		}
		p.Sender = s
		offset = n
	}
	if p.HasRecipient {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return TextPayload{}, err
		}
		p.Recipient = s
		offset = n
	}

	text := data[offset:]
	if !utf8.Valid(text) {
		return TextPayload{}, fmt.Errorf("payload: text field is not valid utf-8: %w", biterr.ErrUtf8Decode)
	}
	p.Text = string(text)

	return p, nil
}

// readLengthPrefixed reads a 1-byte-length-prefixed UTF-8 string starting
// at offset and returns the string and the offset just past it.
func readLengthPrefixed(data []byte, offset int) (string, int, error) {
	if offset >= len(data) {
		return "", 0, fmt.Errorf("payload: missing length prefix: %w", biterr.ErrInsufficientBytes)
	}
	n := int(data[offset])
	offset++
	if offset+n > len(data) {
		return "", 0, fmt.Errorf("payload: length-prefixed field underflow: %w", biterr.ErrInsufficientBytes)
	}
	field := data[offset : offset+n]
	if !utf8.Valid(field) {
		return "", 0, fmt.Errorf("payload: length-prefixed field is not valid utf-8: %w", biterr.ErrUtf8Decode)
	}
	return string(field), offset + n, nil
}
