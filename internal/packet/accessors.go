package packet

import (
	"time"

	"github.com/bitpack/bitpack/internal/wire"
)

// MessageID returns the packet's message ID, widened to uint32 for
// Compact packets so mesh-layer code can handle both modes uniformly.
func (p Packet) MessageID() uint32 {
	if p.Mode == wire.ModeCompact {
		return uint32(p.Compact.MessageID)
	}
	return p.Standard.MessageID
}

// HopTTL returns the packet's remaining hop count.
func (p Packet) HopTTL() uint8 {
	if p.Mode == wire.ModeCompact {
		return p.Compact.TTL
	}
	return p.Standard.HopTTL
}

// Mesh reports whether the packet's mesh flag is set.
func (p Packet) Mesh() bool {
	if p.Mode == wire.ModeCompact {
		return p.Compact.Mesh
	}
	return p.Standard.Mesh
}

// Urgent reports whether the packet's urgent flag is set.
func (p Packet) Urgent() bool {
	if p.Mode == wire.ModeCompact {
		return p.Compact.Urgent
	}
	return p.Standard.Urgent
}

// Type returns the packet's message type code.
func (p Packet) Type() wire.MessageType {
	if p.Mode == wire.ModeCompact {
		return p.Compact.Type
	}
	return p.Standard.Type
}

// CurrentAgeMinutes returns the packet's current relative age as of now.
// Compact packets carry no age field and always report 0.
func (p Packet) CurrentAgeMinutes(now time.Time) uint32 {
	if p.Mode == wire.ModeCompact {
		return 0
	}
	return p.Standard.CurrentAgeMinutes(now)
}

// IsExpired reports whether the packet must not be relayed (spec I4).
// Compact packets have no age ceiling, only hop_ttl.
func (p Packet) IsExpired(now time.Time, maxAgeMinutes uint32) bool {
	if p.Mode == wire.ModeCompact {
		return p.Compact.TTL == 0
	}
	return p.Standard.IsExpired(now, maxAgeMinutes)
}

// PrepareForRelay returns a copy of the packet with its hop-liveness
// fields updated for relay (spec §4.4, §4.9): Compact decrements TTL;
// Standard decrements hop_ttl and folds in the locally measured hold
// time. The payload is unchanged. The returned Packet has its encode
// cache cleared since its header bytes differ from the original.
func (p Packet) PrepareForRelay(now time.Time) Packet {
	out := p
	out.encoded = nil
	if p.Mode == wire.ModeCompact {
		out.Compact = p.Compact.PrepareForRelay()
	} else {
		out.Standard = p.Standard.PrepareForRelay(now)
	}
	return out
}
