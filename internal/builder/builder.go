// Package builder implements the fluent PacketBuilder and automatic
// mode-selection logic (spec §4.11): application code configures a
// packet's shape and the builder picks Compact or Standard framing and
// auto-generates a message ID when the caller doesn't supply one.
package builder

import (
	"fmt"
	"time"

	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/msgid"
	"github.com/bitpack/bitpack/internal/packet"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

// CompactPayloadMax is the largest payload size (after a 4-byte header
// and 1-byte CRC-8 trailer) that still fits the Compact mode's 20-byte
// wire ceiling (spec §4.11).
const CompactPayloadMax = 15

// Builder fluently configures a packet's type, mode, ID, TTL, security
// mode, flags, payload, and age before producing a packet.Packet.
type Builder struct {
	msgType      wire.MessageType
	modeOverride *wire.PacketMode
	messageID    *uint32
	ttl          uint8
	security     header.SecurityMode
	flags        wire.Flags
	pl           payload.Payload
	ageMinutes   uint16

	gen *msgid.Generator
	now time.Time
}

// New starts a Builder for msgType. now is the construction time used
// for auto-generated message IDs; gen may be nil to use a default
// CSPRNG-backed generator.
func New(msgType wire.MessageType, gen *msgid.Generator, now time.Time) *Builder {
	if gen == nil {
		gen = msgid.NewGenerator()
	}
	return &Builder{
		msgType: msgType,
		ttl:     header.MaxCompactTTL,
		gen:     gen,
		now:     now,
	}
}

// WithMode forces Compact or Standard framing, overriding automatic mode
// selection. Building a Standard-only type with ModeCompact forced
// returns an error from Build rather than silently upgrading the mode.
func (b *Builder) WithMode(mode wire.PacketMode) *Builder {
	b.modeOverride = &mode
	return b
}

// WithMessageID supplies an explicit message ID, skipping auto-generation.
func (b *Builder) WithMessageID(id uint32) *Builder {
	b.messageID = &id
	return b
}

// WithTTL sets the hop TTL.
func (b *Builder) WithTTL(ttl uint8) *Builder {
	b.ttl = ttl
	return b
}

// WithSecurityMode sets the Standard security mode.
func (b *Builder) WithSecurityMode(mode header.SecurityMode) *Builder {
	b.security = mode
	return b
}

// WithFlags sets the behavioral flags.
func (b *Builder) WithFlags(flags wire.Flags) *Builder {
	b.flags = flags
	return b
}

// WithPayload sets the payload to encode.
func (b *Builder) WithPayload(p payload.Payload) *Builder {
	b.pl = p
	return b
}

// WithAgeMinutes sets the initial relative age (spec §4.4); a nonzero
// age forces Standard mode.
func (b *Builder) WithAgeMinutes(age uint16) *Builder {
	b.ageMinutes = age
	return b
}

// determineMode implements the automatic mode-selection rule of spec
// §4.11: Standard if the type requires it, if any security/encryption or
// fragmentation flag is set, if age_minutes > 0, if ttl exceeds the
// Compact 4-bit ceiling, or if the payload would not fit Compact's
// 15-byte budget. Otherwise Compact.
func (b *Builder) determineMode() wire.PacketMode {
	if b.msgType.RequiresStandard() {
		return wire.ModeStandard
	}
	if b.security != header.SecurityNone {
		return wire.ModeStandard
	}
	if b.flags.Encrypted || b.flags.IsFragment || b.flags.MoreFragments {
		return wire.ModeStandard
	}
	if b.ageMinutes > 0 {
		return wire.ModeStandard
	}
	if b.ttl > header.MaxCompactTTL {
		return wire.ModeStandard
	}
	if b.pl != nil && b.pl.SizeInBytes() > CompactPayloadMax {
		return wire.ModeStandard
	}
	return wire.ModeCompact
}

func (b *Builder) resolveMode() wire.PacketMode {
	if b.modeOverride != nil {
		return *b.modeOverride
	}
	return b.determineMode()
}

// Build assembles the configured packet, auto-generating a message ID
// for the resolved mode when none was supplied via WithMessageID.
func (b *Builder) Build() (packet.Packet, error) {
	mode := b.resolveMode()

	switch mode {
	case wire.ModeCompact:
		if b.msgType.RequiresStandard() {
			return packet.Packet{}, fmt.Errorf("builder: type %s requires Standard mode", b.msgType)
		}
		id, err := b.compactMessageID()
		if err != nil {
			return packet.Packet{}, err
		}
		h := header.CompactHeader{
			Type:        b.msgType,
			Mesh:        b.flags.Mesh,
			AckRequired: b.flags.AckRequired,
			Encrypted:   b.flags.Encrypted,
			TTL:         b.ttl,
			Compressed:  b.flags.Compressed,
			Urgent:      b.flags.Urgent,
			MessageID:   id,
		}
		if err := h.Validate(); err != nil {
			return packet.Packet{}, err
		}
		pkt := packet.NewCompact(h, b.pl)
		return pkt, nil

	case wire.ModeStandard:
		id, err := b.standardMessageID()
		if err != nil {
			return packet.Packet{}, err
		}
		h := header.StandardHeader{
			Type:          b.msgType,
			Mesh:          b.flags.Mesh,
			AckRequired:   b.flags.AckRequired,
			Encrypted:     b.flags.Encrypted,
			Compressed:    b.flags.Compressed,
			Urgent:        b.flags.Urgent,
			IsFragment:    b.flags.IsFragment,
			MoreFragments: b.flags.MoreFragments,
			HopTTL:        b.ttl,
			MessageID:     id,
			SecurityMode:  b.security,
			AgeMinutes:    b.ageMinutes,
		}
		if err := h.Validate(); err != nil {
			return packet.Packet{}, err
		}
		pkt := packet.NewStandard(h, b.pl)
		return pkt, nil

	default:
		return packet.Packet{}, fmt.Errorf("builder: unknown mode %v", mode)
	}
}

func (b *Builder) compactMessageID() (uint16, error) {
	if b.messageID != nil {
		return uint16(*b.messageID), nil
	}
	return b.gen.Generate16(b.now)
}

func (b *Builder) standardMessageID() (uint32, error) {
	if b.messageID != nil {
		return *b.messageID, nil
	}
	return b.gen.Generate32(b.now)
}
