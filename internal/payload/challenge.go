package payload

import (
	"fmt"
	"unicode/utf8"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/wire"
)

// ChallengeSaltSize is the fixed size of the random salt carried by a
// ChallengePayload (spec §3, §4.10).
const ChallengeSaltSize = 16

// ChallengePayload demonstrates knowledge of a shared secret without
// revealing it (spec §4.10 zero-knowledge challenge block): flags byte,
// optional length-prefixed sender/recipient IDs, a 16-byte salt, a
// length-prefixed UTF-8 question, and the remaining bytes as ciphertext
// (the AES-GCM-encrypted fixed 16-byte plaintext block).
type ChallengePayload struct {
	Sender       string
	HasSender    bool
	Recipient    string
	HasRecipient bool
	Salt         [ChallengeSaltSize]byte
	Question     string
	Ciphertext   []byte
}

func (ChallengePayload) Type() wire.MessageType { return wire.Challenge }

func (p ChallengePayload) SizeInBytes() int { return len(p.Encode()) }

// Encode serializes p: flags byte, length-prefixed sender/recipient (only
// the ones flagged present), 16-byte salt, length-prefixed question, then
// the raw ciphertext to the end of the payload.
func (p ChallengePayload) Encode() []byte {
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

	buf = append(buf, p.Salt[:]...)
	buf = append(buf, byte(len(p.Question)))
	buf = append(buf, p.Question...)
	buf = append(buf, p.Ciphertext...)
	return buf
}

// DecodeChallengePayload parses a ChallengePayload. The flags byte's
// sender/recipient bits must be consistent with the length-prefixed IDs
// that follow (spec §4.5); any underflow is InsufficientBytes.
func DecodeChallengePayload(data []byte) (ChallengePayload, error) {
	if len(data) < 1 {
		return ChallengePayload{}, fmt.Errorf("payload: challenge requires at least 1 byte: %w", biterr.ErrInsufficientBytes)
	}
	flags := data[0]
	p := ChallengePayload{
		HasSender:    flags&(1<<7) != 0,
		HasRecipient: flags&(1<<6) != 0,
	}
	offset := 1

	if p.HasSender {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return ChallengePayload{}, err
		}
		p.Sender = s
		offset = n
	}
	if p.HasRecipient {
		s, n, err := readLengthPrefixed(data, offset)
		if err != nil {
			return ChallengePayload{}, err
		}
		p.Recipient = s
		offset = n
	}

	if offset+ChallengeSaltSize > len(data) {
		return ChallengePayload{}, fmt.Errorf("payload: challenge salt truncated: %w", biterr.ErrInsufficientBytes)
	}
	copy(p.Salt[:], data[offset:offset+ChallengeSaltSize])
	offset += ChallengeSaltSize

	question, n, err := readLengthPrefixed(data, offset)
	if err != nil {
		return ChallengePayload{}, err
	}
	if !utf8.Valid([]byte(question)) {
		return ChallengePayload{}, fmt.Errorf("payload: challenge question is not valid utf-8: %w", biterr.ErrUtf8Decode)
	}
	p.Question = question
	offset = n

	p.Ciphertext = append([]byte(nil), data[offset:]...)

	return p, nil
}
