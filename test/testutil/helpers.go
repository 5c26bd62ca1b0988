// Package testutil provides test helpers and fixture constructors shared
// across BitPack's package-level test suites.
package testutil

import (
	"crypto/rand"
	"time"

	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

// RandomBytes generates cryptographically random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// RandomMessageID32 generates a random 32-bit message ID, for tests that
// don't care about the id-generation rule of spec §4.3 and just need a
// plausible-looking value.
func RandomMessageID32() uint32 {
	b := RandomBytes(4)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// MakeTestSOS returns a ready-to-encode SosPayload with fixed, readable
// field values, suitable as a base test fixture.
func MakeTestSOS() payload.SosPayload {
	p, err := payload.NewSosPayload(payload.Trapped, 3, true, true, 37.7749, -122.4194, "5551234", 12, 8)
	if err != nil {
		panic(err) // fixture construction with known-valid inputs must not fail
	}
	return p
}

// MakeTestCompactHeader returns a valid CompactHeader for msgType with
// messageID, defaulting TTL and flags to representative values.
func MakeTestCompactHeader(msgType wire.MessageType, messageID uint16) header.CompactHeader {
	return header.CompactHeader{
		Type:        msgType,
		Mesh:        true,
		AckRequired: false,
		Encrypted:   false,
		TTL:         10,
		Compressed:  false,
		Urgent:      false,
		MessageID:   messageID,
	}
}

// MakeTestStandardHeader returns a valid StandardHeader for msgType with
// messageID, defaulting TTL, security mode, and flags to representative
// values.
func MakeTestStandardHeader(msgType wire.MessageType, messageID uint32) header.StandardHeader {
	return header.StandardHeader{
		Type:         msgType,
		Mesh:         true,
		HopTTL:       10,
		MessageID:    messageID,
		SecurityMode: header.SecurityNone,
	}
}

// WaitFor polls condition until it is true or timeout elapses, returning
// whether it became true in time. Useful for asserting on asynchronously
// scheduled relay/backoff timers without a fixed sleep.
func WaitFor(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return condition()
}
