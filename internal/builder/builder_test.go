package builder

import (
	"testing"
	"time"

	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/msgid"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

func testGen() *msgid.Generator {
	return msgid.NewGenerator()
}

func TestDetermineModeDefaultsToCompact(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeCompact {
		t.Errorf("Mode = %v, want ModeCompact", pkt.Mode)
	}
}

func TestDetermineModeStandardOnlyType(t *testing.T) {
	pkt, err := New(wire.Challenge, testGen(), time.Now()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard for a Standard-only type", pkt.Mode)
	}
}

func TestDetermineModeSecurityForcesStandard(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).
		WithSecurityMode(header.SecurityChallenge).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard when a security mode is set", pkt.Mode)
	}
}

func TestDetermineModeEncryptedFlagForcesStandard(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).
		WithFlags(wire.Flags{Encrypted: true}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard when Encrypted flag is set", pkt.Mode)
	}
}

func TestDetermineModeFragmentFlagsForceStandard(t *testing.T) {
	for _, flags := range []wire.Flags{
		{IsFragment: true},
		{MoreFragments: true},
	} {
		pkt, err := New(wire.Ping, testGen(), time.Now()).WithFlags(flags).Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if pkt.Mode != wire.ModeStandard {
			t.Errorf("flags %+v: Mode = %v, want ModeStandard", flags, pkt.Mode)
		}
	}
}

func TestDetermineModeAgeMinutesForcesStandard(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).WithAgeMinutes(5).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard when age_minutes > 0", pkt.Mode)
	}
}

func TestDetermineModeTTLOverflowForcesStandard(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).WithTTL(header.MaxCompactTTL + 1).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard when ttl exceeds the Compact ceiling", pkt.Mode)
	}
}

func TestDetermineModeOversizedPayloadForcesStandard(t *testing.T) {
	text := payload.TextPayload{Text: "this message is far too long to fit inside a Compact frame's fifteen-byte payload budget"}
	if text.SizeInBytes() <= CompactPayloadMax {
		t.Fatalf("fixture payload size %d must exceed CompactPayloadMax %d for this test to be meaningful", text.SizeInBytes(), CompactPayloadMax)
	}
	pkt, err := New(wire.TextShort, testGen(), time.Now()).WithPayload(text).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard for an oversized payload", pkt.Mode)
	}
}

func TestWithModeOverrideHonored(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).WithMode(wire.ModeStandard).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.Mode != wire.ModeStandard {
		t.Errorf("Mode = %v, want ModeStandard (forced)", pkt.Mode)
	}
}

func TestWithModeOverrideRejectsStandardOnlyTypeInCompact(t *testing.T) {
	_, err := New(wire.Challenge, testGen(), time.Now()).WithMode(wire.ModeCompact).Build()
	if err == nil {
		t.Error("expected an error forcing a Standard-only type into Compact mode, got nil")
	}
}

func TestBuildUsesExplicitMessageID(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).WithMessageID(0xABCD).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pkt.MessageID() != 0xABCD&0xFFFF {
		t.Errorf("MessageID() = %x, want %x", pkt.MessageID(), 0xABCD&0xFFFF)
	}
}

func TestBuildAutoGeneratesMessageIDWhenUnset(t *testing.T) {
	now := time.Now()
	p1, err := New(wire.Ping, testGen(), now).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p2, err := New(wire.Ping, testGen(), now).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p1.MessageID() == p2.MessageID() {
		t.Error("two auto-generated message IDs collided; expected CSPRNG low bits to differ")
	}
}

func TestBuildCompactRoundtrip(t *testing.T) {
	pkt, err := New(wire.Ping, testGen(), time.Now()).
		WithFlags(wire.Flags{Mesh: true, Urgent: true}).
		WithTTL(7).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	enc, err := pkt.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if pkt.Mode != wire.ModeCompact {
		t.Fatalf("Mode = %v, want ModeCompact", pkt.Mode)
	}
	if len(enc) == 0 {
		t.Error("Encode produced no bytes")
	}
	if pkt.Type() != wire.Ping {
		t.Errorf("Type() = %v, want Ping", pkt.Type())
	}
	if !pkt.Urgent() {
		t.Error("Urgent() = false, want true")
	}
	if pkt.HopTTL() != 7 {
		t.Errorf("HopTTL() = %d, want 7", pkt.HopTTL())
	}
}

func TestBuildStandardRoundtrip(t *testing.T) {
	pkt, err := New(wire.Challenge, testGen(), time.Now()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	enc, err := pkt.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(enc) == 0 {
		t.Error("Encode produced no bytes")
	}
	if pkt.Type() != wire.Challenge {
		t.Errorf("Type() = %v, want Challenge", pkt.Type())
	}
}
