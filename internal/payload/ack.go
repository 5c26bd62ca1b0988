package payload

import (
	"fmt"
	"unicode/utf8"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/bitio"
	"github.com/bitpack/bitpack/internal/wire"
)

// AckStatus is the 4-bit status nibble carried in an AckPayload.
type AckStatus uint8

const (
	StatusReceived  AckStatus = 0
	StatusDelivered AckStatus = 1
	StatusRead      AckStatus = 2
	StatusFailed    AckStatus = 3
	StatusRejected  AckStatus = 4
	StatusRelayed   AckStatus = 5
)

// AckPayload acknowledges an earlier message (spec §3, §9 open question).
// SosAck (Compact) and DataAck (Standard) both use AckPayload with
// different message-id widths; Compact selects the narrow 16-bit form.
type AckPayload struct {
	Compact           bool // true: 16-bit OriginalMessageID, false: 32-bit
	OriginalMessageID uint32
	Status            AckStatus
	Reason            string
	HasReason         bool
}

func (p AckPayload) Type() wire.MessageType {
	if p.Compact {
		return wire.SosAck
	}
	return wire.DataAck
}

func (p AckPayload) idWidth() int {
	if p.Compact {
		return 2
	}
	return 4
}

func (p AckPayload) SizeInBytes() int { return len(p.Encode()) }

// Encode serializes p: original_message_id (2 or 4 bytes per mode),
// status nibble in the high nibble of the next byte, then an optional
// length-prefixed UTF-8 reason.
func (p AckPayload) Encode() []byte {
	buf := make([]byte, p.idWidth()+1)
	if p.Compact {
		bitio.PutUint16(buf[0:2], uint16(p.OriginalMessageID))
	} else {
		bitio.PutUint32(buf[0:4], p.OriginalMessageID)
	}
	buf[p.idWidth()] = byte(p.Status&0x0F) << 4

	if p.HasReason {
		buf[p.idWidth()] |= 1 << 3
		buf = append(buf, byte(len(p.Reason)))
		buf = append(buf, p.Reason...)
	}
	return buf
}

// DecodeAckPayload parses an AckPayload; compact selects the 16-bit
// OriginalMessageID width used by SosAck, otherwise the 32-bit DataAck
// width. Length-prefixed reason underflow is InsufficientBytes.
func DecodeAckPayload(data []byte, compact bool) (AckPayload, error) {
	width := 4
	if compact {
		width = 2
	}
	if len(data) < width+1 {
		return AckPayload{}, fmt.Errorf("payload: ack requires at least %d bytes, got %d: %w", width+1, len(data), biterr.ErrInsufficientBytes)
	}

	p := AckPayload{Compact: compact}
	if compact {
		p.OriginalMessageID = uint32(bitio.Uint16(data[0:2]))
	} else {
		p.OriginalMessageID = bitio.Uint32(data[0:4])
	}

	statusByte := data[width]
	p.Status = AckStatus((statusByte >> 4) & 0x0F)
	p.HasReason = statusByte&(1<<3) != 0

	if p.HasReason {
		reason, _, err := readLengthPrefixed(data, width+1)
		if err != nil {
			return AckPayload{}, err
		}
		if !utf8.Valid([]byte(reason)) {
			return AckPayload{}, fmt.Errorf("payload: ack reason is not valid utf-8: %w", biterr.ErrUtf8Decode)
		}
		p.Reason = reason
	}

	return p, nil
}
