package payload

import (
	"fmt"
	"sort"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/bitio"
	"github.com/bitpack/bitpack/internal/wire"
)

// MaxNackBlocks is the largest number of blocks a single NACK payload can
// carry; each block covers up to 12 consecutive fragment indices, so one
// NACK addresses at most MaxNackBlocks*12 = 96 missing indices (spec §4.7,
// §9 open question: messages with more misses get additional NACK rounds,
// earliest-first).
const MaxNackBlocks = 8

// NackBlockSpan is the number of consecutive fragment indices one block
// can address.
const NackBlockSpan = 12

// NackBlock covers fragment indices [StartIndex, StartIndex+12) via a
// 12-bit missing bitmask: bit N set means fragment StartIndex+N is missing.
type NackBlock struct {
	StartIndex     uint16 // 12-bit
	MissingBitmask uint16 // 12-bit
}

// NackPayload requests retransmission of specific missing fragments
// (spec §3, §4.7 selective-repeat strategy).
type NackPayload struct {
	OriginalMessageID uint32
	Blocks            []NackBlock
}

func (NackPayload) Type() wire.MessageType { return wire.Nack }

func (p NackPayload) SizeInBytes() int { return 5 + 3*len(p.Blocks) }

// Encode serializes p: original_message_id(32b), block_count(8b), then
// block_count 3-byte blocks of start_index(12b)|missing_bitmask(12b).
func (p NackPayload) Encode() []byte {
	buf := make([]byte, 5, p.SizeInBytes())
	bitio.PutUint32(buf[0:4], p.OriginalMessageID)
	buf[4] = byte(len(p.Blocks))
	for _, b := range p.Blocks {
		buf = append(buf,
			byte(b.StartIndex>>4),
			byte(b.StartIndex<<4)|byte(b.MissingBitmask>>8),
			byte(b.MissingBitmask),
		)
	}
	return buf
}

// DecodeNackPayload parses a NackPayload. block_count == 0 is rejected
// (spec §4.5).
func DecodeNackPayload(data []byte) (NackPayload, error) {
	if len(data) < 5 {
		return NackPayload{}, fmt.Errorf("payload: nack requires at least 5 bytes, got %d: %w", len(data), biterr.ErrInsufficientBytes)
	}
	p := NackPayload{OriginalMessageID: bitio.Uint32(data[0:4])}
	blockCount := int(data[4])
	if blockCount == 0 {
		return NackPayload{}, fmt.Errorf("payload: nack block_count must be > 0: %w", biterr.ErrOutOfRange)
	}

	offset := 5
	for i := 0; i < blockCount; i++ {
		if offset+3 > len(data) {
			return NackPayload{}, fmt.Errorf("payload: nack block %d truncated: %w", i, biterr.ErrInsufficientBytes)
		}
		b0, b1, b2 := data[offset], data[offset+1], data[offset+2]
		p.Blocks = append(p.Blocks, NackBlock{
			StartIndex:     uint16(b0)<<4 | uint16(b1>>4),
			MissingBitmask: uint16(b1&0x0F)<<8 | uint16(b2),
		})
		offset += 3
	}

	return p, nil
}

// BuildNackBlocks groups a set of missing fragment indices into NACK
// blocks of NackBlockSpan consecutive indices each, at most MaxNackBlocks
// blocks, earliest-first. Indices beyond the capacity of MaxNackBlocks
// blocks are left out of the result for the caller's next NACK round,
// never silently conflated with retry-exhaustion (spec §9).
func BuildNackBlocks(missing []uint16) []NackBlock {
	sorted := append([]uint16(nil), missing...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var blocks []NackBlock
	i := 0
	for i < len(sorted) && len(blocks) < MaxNackBlocks {
		start := (sorted[i] / NackBlockSpan) * NackBlockSpan
		var mask uint16
		for i < len(sorted) && sorted[i] < start+NackBlockSpan {
			mask |= 1 << (sorted[i] - start)
			i++
		}
		blocks = append(blocks, NackBlock{StartIndex: start, MissingBitmask: mask})
	}
	return blocks
}
