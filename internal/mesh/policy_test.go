package mesh

import (
	"testing"
	"time"

	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/packet"
	"github.com/bitpack/bitpack/internal/wire"
)

func TestShouldRelayRequiresMeshFlag(t *testing.T) {
	p := NewRelayPolicy()
	h := header.CompactHeader{Type: wire.Ping, Mesh: false, TTL: 5, MessageID: 1}
	pkt := packet.NewCompact(h, nil)
	if p.ShouldRelay(pkt, time.Now()) {
		t.Error("ShouldRelay = true for a packet with Mesh=false")
	}
}

func TestShouldRelayRequiresRemainingHops(t *testing.T) {
	p := NewRelayPolicy()
	h := header.CompactHeader{Type: wire.Ping, Mesh: true, TTL: 0, MessageID: 1}
	pkt := packet.NewCompact(h, nil)
	if p.ShouldRelay(pkt, time.Now()) {
		t.Error("ShouldRelay = true for a packet with TTL=0")
	}
}

func TestShouldRelayRejectsExpiredStandardPacket(t *testing.T) {
	p := RelayPolicy{MaxAgeMinutes: 10}
	now := time.Now()
	h := header.StandardHeader{Type: wire.BinaryData, Mesh: true, HopTTL: 5, MessageID: 1, AgeMinutes: 20}
	pkt := packet.NewStandard(h, nil)
	if p.ShouldRelay(pkt, now) {
		t.Error("ShouldRelay = true for a packet past MaxAgeMinutes")
	}
}

func TestShouldRelayAcceptsFreshPacket(t *testing.T) {
	p := NewRelayPolicy()
	h := header.CompactHeader{Type: wire.Ping, Mesh: true, TTL: 5, MessageID: 1}
	pkt := packet.NewCompact(h, nil)
	if !p.ShouldRelay(pkt, time.Now()) {
		t.Error("ShouldRelay = false for an eligible packet")
	}
}

func TestCalculatePrioritySosBeaconOutranksBinaryData(t *testing.T) {
	p := NewRelayPolicy()
	sos := packet.NewCompact(header.CompactHeader{Type: wire.SosBeacon, TTL: 5}, nil)
	data := packet.NewCompact(header.CompactHeader{Type: wire.BinaryData, TTL: 5}, nil)
	if p.CalculatePriority(sos) <= p.CalculatePriority(data) {
		t.Error("SosBeacon priority should exceed BinaryData priority")
	}
}

func TestCalculatePriorityUrgentFlagAddsBonus(t *testing.T) {
	p := NewRelayPolicy()
	urgent := packet.NewCompact(header.CompactHeader{Type: wire.BinaryData, Urgent: true, TTL: 5}, nil)
	plain := packet.NewCompact(header.CompactHeader{Type: wire.BinaryData, Urgent: false, TTL: 5}, nil)
	if p.CalculatePriority(urgent) <= p.CalculatePriority(plain) {
		t.Error("Urgent packet priority should exceed a non-urgent one")
	}
}

func TestCalculatePriorityFavorsLowerHopTTL(t *testing.T) {
	p := NewRelayPolicy()
	close := packet.NewCompact(header.CompactHeader{Type: wire.BinaryData, TTL: 1}, nil)
	far := packet.NewCompact(header.CompactHeader{Type: wire.BinaryData, TTL: 15}, nil)
	if p.CalculatePriority(close) <= p.CalculatePriority(far) {
		t.Error("a packet closer to TTL exhaustion should score higher priority")
	}
}
