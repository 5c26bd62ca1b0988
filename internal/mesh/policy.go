package mesh

import (
	"time"

	"github.com/bitpack/bitpack/internal/packet"
	"github.com/bitpack/bitpack/internal/wire"
)

// DefaultMaxAgeMinutes is the default relative-age ceiling past which a
// Standard packet is never relayed (spec §4.4, §6).
const DefaultMaxAgeMinutes = 1440

// RelayPolicy is a set of pure functions over packet header fields
// deciding whether and how urgently to relay a packet (spec §4.9).
type RelayPolicy struct {
	MaxAgeMinutes uint32
}

// NewRelayPolicy returns a RelayPolicy with the spec default max age.
func NewRelayPolicy() RelayPolicy {
	return RelayPolicy{MaxAgeMinutes: DefaultMaxAgeMinutes}
}

// ShouldRelay reports whether pkt is eligible for relay: its mesh flag
// is set, it has hops remaining, and (for Standard packets) its current
// relative age has not reached MaxAgeMinutes (spec §4.9).
func (p RelayPolicy) ShouldRelay(pkt packet.Packet, now time.Time) bool {
	if !pkt.Mesh() {
		return false
	}
	if pkt.HopTTL() == 0 {
		return false
	}
	return !pkt.IsExpired(now, p.MaxAgeMinutes)
}

// PrepareForRelay returns a copy of pkt with its hop-liveness fields
// advanced for the next hop (spec §4.9): Compact decrements TTL;
// Standard decrements hop_ttl and folds in the local hold time. The
// payload is unchanged.
func (p RelayPolicy) PrepareForRelay(pkt packet.Packet, now time.Time) packet.Packet {
	return pkt.PrepareForRelay(now)
}

// CalculatePriority scores pkt for relay ordering: higher scores should
// be serviced earlier (spec §4.9). SOS beacons get a flat bonus of 200
// and urgent traffic 100; each step of hop_ttl below 15 (closer to
// exhaustion, i.e. further from origin) adds 10, up to 150, so a
// far-travelled packet near TTL exhaustion can outrank
// freshly-originated urgent traffic.
func (p RelayPolicy) CalculatePriority(pkt packet.Packet) int {
	score := 0
	if pkt.Type() == wire.SosBeacon {
		score += 200
	}
	if pkt.Urgent() {
		score += 100
	}
	ttl := int(pkt.HopTTL())
	if ttl > 15 {
		ttl = 15
	}
	score += 10 * (15 - ttl)
	return score
}
