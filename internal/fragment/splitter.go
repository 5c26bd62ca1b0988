package fragment

import (
	"fmt"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/packet"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

// MaxFragments is the largest total fragment count a 12-bit
// FragmentHeader field can address (spec §4.7).
const MaxFragments = 4095

// crc32TrailerSize is the number of trailer bytes a Standard packet
// appends (spec §4.6).
const crc32TrailerSize = 4

// Split breaks payloadBytes into one or more Standard packets carrying
// messageID and msgType, reusing hopTTL as the starting hop_ttl (spec
// §4.7). If payloadBytes already fits within a single Standard packet at
// the given mtu, Split returns exactly one non-fragment packet. Payloads
// that would need more than MaxFragments chunks are rejected.
func Split(payloadBytes []byte, messageID uint32, msgType wire.MessageType, hopTTL uint8, mtu int) ([]packet.Packet, error) {
	maxSingle := mtu - header.StandardSize - crc32TrailerSize
	if maxSingle < 0 {
		return nil, fmt.Errorf("fragment: mtu %d too small for a standard header+trailer", mtu)
	}

	if len(payloadBytes) <= maxSingle {
		h := header.StandardHeader{
			Type:      msgType,
			Mesh:      true,
			HopTTL:    hopTTL,
			MessageID: messageID,
		}
		pl := payload.RawPayload{TypeCode: msgType, Bytes: payloadBytes}
		pkt := packet.NewStandard(h, pl)
		return []packet.Packet{pkt}, nil
	}

	chunkSize := mtu - header.StandardSize - header.FragmentHeaderSize - crc32TrailerSize
	if chunkSize <= 0 {
		return nil, fmt.Errorf("fragment: mtu %d leaves no room for fragment chunks", mtu)
	}

	total := (len(payloadBytes) + chunkSize - 1) / chunkSize
	if total > MaxFragments {
		return nil, fmt.Errorf("fragment: payload needs %d fragments, exceeds %d: %w", total, MaxFragments, biterr.ErrFragmentation)
	}

	packets := make([]packet.Packet, 0, total)
	for i := 0; i < total; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(payloadBytes) {
			end = len(payloadBytes)
		}
		chunk := payloadBytes[start:end]

		fh := header.FragmentHeader{Index: uint16(i), Total: uint16(total)}
		fhBytes, err := fh.Encode()
		if err != nil {
			return nil, err
		}

		h := header.StandardHeader{
			Type:          msgType,
			Mesh:          true,
			HopTTL:        hopTTL,
			MessageID:     messageID,
			IsFragment:    true,
			MoreFragments: i < total-1,
		}
		body := append(append([]byte(nil), fhBytes...), chunk...)
		pl := payload.RawPayload{TypeCode: msgType, Bytes: body}
		packets = append(packets, packet.NewStandard(h, pl))
	}

	return packets, nil
}
