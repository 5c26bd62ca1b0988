package header

import (
	"errors"
	"testing"
	"time"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/wire"
)

func TestCompactHeaderRoundtrip(t *testing.T) {
	h := CompactHeader{
		Type:        wire.SosBeacon,
		Mesh:        true,
		AckRequired: false,
		Encrypted:   true,
		TTL:         7,
		Compressed:  false,
		Urgent:      true,
		MessageID:   0xBEEF,
	}
	enc, err := h.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) != CompactSize {
		t.Fatalf("len = %d, want %d", len(enc), CompactSize)
	}
	got, err := DecodeCompactHeader(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestCompactHeaderRejectsStandardOnlyType(t *testing.T) {
	h := CompactHeader{Type: wire.Challenge, TTL: 1}
	if _, err := h.Encode(); !errors.Is(err, biterr.ErrInvalidType) {
		t.Errorf("err = %v, want ErrInvalidType", err)
	}
}

func TestCompactHeaderRejectsTTLOutOfRange(t *testing.T) {
	h := CompactHeader{Type: wire.Ping, TTL: 16}
	if _, err := h.Encode(); !errors.Is(err, biterr.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestCompactHeaderPrepareForRelaySaturates(t *testing.T) {
	h := CompactHeader{TTL: 0}
	if got := h.PrepareForRelay(); got.TTL != 0 {
		t.Errorf("TTL = %d, want 0 (saturated)", got.TTL)
	}
	h.TTL = 3
	if got := h.PrepareForRelay(); got.TTL != 2 {
		t.Errorf("TTL = %d, want 2", got.TTL)
	}
}

func TestDecodeCompactHeaderRejectsStandardModeBit(t *testing.T) {
	buf := make([]byte, CompactSize)
	buf[0] = 0x80 // mode bit set
	if _, err := DecodeCompactHeader(buf); !errors.Is(err, biterr.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestDecodeCompactHeaderInsufficientBytes(t *testing.T) {
	if _, err := DecodeCompactHeader([]byte{0x00, 0x01}); !errors.Is(err, biterr.ErrInsufficientBytes) {
		t.Errorf("err = %v, want ErrInsufficientBytes", err)
	}
}

func TestStandardHeaderRoundtrip(t *testing.T) {
	h := StandardHeader{
		Version:       0,
		Type:          wire.TextLocation,
		Mesh:          true,
		AckRequired:   true,
		Encrypted:     false,
		Compressed:    true,
		Urgent:        false,
		IsFragment:    true,
		MoreFragments: true,
		HopTTL:        42,
		MessageID:     0xCAFEBABE,
		SecurityMode:  SecurityEncrypted,
		PayloadLength: 1234,
		AgeMinutes:    500,
	}
	enc, err := h.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) != StandardSize {
		t.Fatalf("len = %d, want %d", len(enc), StandardSize)
	}
	got, err := DecodeStandardHeader(enc, time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got.ReceivedAt = time.Time{} // exclude from comparison
	if got != h {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestStandardHeaderRejectsOversizedPayloadLength(t *testing.T) {
	h := StandardHeader{PayloadLength: MaxPayloadLength + 1}
	if _, err := h.Encode(); !errors.Is(err, biterr.ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestDecodeStandardHeaderRejectsCompactModeBit(t *testing.T) {
	buf := make([]byte, StandardSize)
	buf[0] = 0x00 // mode bit clear
	if _, err := DecodeStandardHeader(buf, time.Now()); !errors.Is(err, biterr.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
}

func TestCurrentAgeMinutesAccumulatesHoldTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := StandardHeader{AgeMinutes: 10, ReceivedAt: base}

	later := base.Add(5 * time.Minute)
	if got := h.CurrentAgeMinutes(later); got != 15 {
		t.Errorf("CurrentAgeMinutes = %d, want 15", got)
	}
}

func TestIsExpiredOnZeroTTL(t *testing.T) {
	h := StandardHeader{HopTTL: 0, AgeMinutes: 0, ReceivedAt: time.Now()}
	if !h.IsExpired(time.Now(), 1440) {
		t.Error("expected expired packet with HopTTL=0")
	}
}

func TestIsExpiredOnMaxAge(t *testing.T) {
	base := time.Now()
	h := StandardHeader{HopTTL: 5, AgeMinutes: 1440, ReceivedAt: base}
	if !h.IsExpired(base, 1440) {
		t.Error("expected expired packet at max age")
	}
}

func TestPrepareForRelayDecrementsAndAccumulatesAge(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := StandardHeader{HopTTL: 3, AgeMinutes: 20, ReceivedAt: base}

	relayedAt := base.Add(2 * time.Minute)
	next := h.PrepareForRelay(relayedAt)

	if next.HopTTL != 2 {
		t.Errorf("HopTTL = %d, want 2", next.HopTTL)
	}
	if next.AgeMinutes != 22 {
		t.Errorf("AgeMinutes = %d, want 22", next.AgeMinutes)
	}
	if !next.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt reset on relay preparation")
	}
}

func TestPrepareForRelaySaturatesTTLAtZero(t *testing.T) {
	h := StandardHeader{HopTTL: 0}
	next := h.PrepareForRelay(time.Now())
	if next.HopTTL != 0 {
		t.Errorf("HopTTL = %d, want 0", next.HopTTL)
	}
}

func TestFragmentHeaderRoundtrip(t *testing.T) {
	f := FragmentHeader{Index: 17, Total: 200}
	enc, err := f.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) != FragmentHeaderSize {
		t.Fatalf("len = %d, want %d", len(enc), FragmentHeaderSize)
	}
	got, err := DecodeFragmentHeader(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != f {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, f)
	}
}

func TestFragmentHeaderMaxValues(t *testing.T) {
	f := FragmentHeader{Index: 4094, Total: 4095}
	enc, err := f.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeFragmentHeader(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != f {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, f)
	}
}

func TestFragmentHeaderRejectsIndexGreaterOrEqualTotal(t *testing.T) {
	f := FragmentHeader{Index: 5, Total: 5}
	if _, err := f.Encode(); !errors.Is(err, biterr.ErrFragmentation) {
		t.Errorf("err = %v, want ErrFragmentation", err)
	}
}

func TestFragmentHeaderRejectsZeroTotal(t *testing.T) {
	f := FragmentHeader{Index: 0, Total: 0}
	if _, err := f.Encode(); !errors.Is(err, biterr.ErrFragmentation) {
		t.Errorf("err = %v, want ErrFragmentation", err)
	}
}
