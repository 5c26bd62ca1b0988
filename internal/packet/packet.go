// Package packet glues the header, payload, and CRC trailer layers into
// the wire-level Packet: mode-aware encode (header‖payload‖CRC) and
// decode with fail-fast integrity checking (spec §4.6).
package packet

import (
	"fmt"
	"time"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/crc"
	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

// Packet is a decoded or to-be-encoded frame: a header (Compact or
// Standard, selected by Mode), a payload, and the integrity trailer
// appended on Encode. Packets are value types; Encode caches its result
// so repeated calls on an unchanged Packet are idempotent and cheap.
type Packet struct {
	Mode     wire.PacketMode
	Compact  header.CompactHeader
	Standard header.StandardHeader
	Payload  payload.Payload

	encoded []byte
}

// NewCompact constructs a Compact-mode Packet.
func NewCompact(h header.CompactHeader, p payload.Payload) Packet {
	return Packet{Mode: wire.ModeCompact, Compact: h, Payload: p}
}

// NewStandard constructs a Standard-mode Packet.
func NewStandard(h header.StandardHeader, p payload.Payload) Packet {
	return Packet{Mode: wire.ModeStandard, Standard: h, Payload: p}
}

// Encode serializes the packet as header‖payload‖trailer: CRC-8 for
// Compact, CRC-32/IEEE big-endian for Standard (spec §4.6). The result is
// cached on the Packet value so repeated Encode calls are idempotent.
func (p *Packet) Encode() ([]byte, error) {
	if p.encoded != nil {
		return p.encoded, nil
	}

	var payloadBytes []byte
	if p.Payload != nil {
		payloadBytes = p.Payload.Encode()
	}

	switch p.Mode {
	case wire.ModeCompact:
		hdrBytes, err := p.Compact.Encode()
		if err != nil {
			return nil, err
		}
		buf := append(hdrBytes, payloadBytes...)
		buf = append(buf, crc.CRC8(buf))
		p.encoded = buf
		return buf, nil

	case wire.ModeStandard:
		h := p.Standard
		h.PayloadLength = uint16(len(payloadBytes))
		hdrBytes, err := h.Encode()
		if err != nil {
			return nil, err
		}
		buf := append(hdrBytes, payloadBytes...)
		sum := crc.CRC32(buf)
		buf = append(buf, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
		p.encoded = buf
		return buf, nil

	default:
		return nil, fmt.Errorf("packet: unknown mode %v", p.Mode)
	}
}

// Decode parses a wire frame into a Packet. Mode is detected from the MSB
// of byte 0. The integrity trailer is verified before any header or
// payload parsing is attempted (spec I2): a mismatch returns
// biterr.ErrCrcMismatch and the frame is discarded without touching the
// header or payload layers. now stamps StandardHeader.ReceivedAt for
// Standard packets.
func Decode(data []byte, now time.Time) (Packet, error) {
	if len(data) < 1 {
		return Packet{}, fmt.Errorf("packet: empty buffer: %w", biterr.ErrInsufficientBytes)
	}

	if data[0]&0x80 == 0 {
		return decodeCompact(data)
	}
	return decodeStandard(data, now)
}

func decodeCompact(data []byte) (Packet, error) {
	const minLen = header.CompactSize + 1 // +1 byte CRC-8 trailer
	if len(data) < minLen {
		return Packet{}, fmt.Errorf("packet: compact frame needs >= %d bytes, got %d: %w", minLen, len(data), biterr.ErrInsufficientBytes)
	}
	if err := crc.VerifyCRC8OrError(data); err != nil {
		return Packet{}, fmt.Errorf("packet: %w: %w", err, biterr.ErrCrcMismatch)
	}

	body := data[:len(data)-1]
	h, err := header.DecodeCompactHeader(body)
	if err != nil {
		return Packet{}, err
	}

	payloadBytes := body[header.CompactSize:]
	pl, err := payload.Decode(wire.ModeCompact, h.Type, payloadBytes)
	if err != nil {
		return Packet{}, err
	}

	pkt := NewCompact(h, pl)
	pkt.encoded = append([]byte(nil), data...)
	return pkt, nil
}

func decodeStandard(data []byte, now time.Time) (Packet, error) {
	const minLen = header.StandardSize + 4 // +4 bytes CRC-32 trailer
	if len(data) < minLen {
		return Packet{}, fmt.Errorf("packet: standard frame needs >= %d bytes, got %d: %w", minLen, len(data), biterr.ErrInsufficientBytes)
	}
	if err := crc.VerifyCRC32OrError(data); err != nil {
		return Packet{}, fmt.Errorf("packet: %w: %w", err, biterr.ErrCrcMismatch)
	}

	body := data[:len(data)-4]
	h, err := header.DecodeStandardHeader(body, now)
	if err != nil {
		return Packet{}, err
	}

	payloadBytes := body[header.StandardSize:]

	var pl payload.Payload
	if h.IsFragment {
		// The reassembler owns FragmentHeader parsing and chunk handling;
		// hand it the raw bytes (fragment header + chunk) untouched.
		pl = payload.DecodeRawPayload(h.Type, payloadBytes)
	} else {
		pl, err = payload.Decode(wire.ModeStandard, h.Type, payloadBytes)
		if err != nil {
			return Packet{}, err
		}
	}

	pkt := NewStandard(h, pl)
	pkt.encoded = append([]byte(nil), data...)
	return pkt, nil
}
