package builder

import (
	"time"

	"github.com/bitpack/bitpack/internal/msgid"
	"github.com/bitpack/bitpack/internal/payload"
	"github.com/bitpack/bitpack/internal/wire"
)

// The functions below are thin one-call constructors for the common
// packet shapes, mirroring the teacher's EncodeHello/EncodePing/EncodePong
// style of collapsing a frequent Builder recipe into a single call. gen
// may be nil to use a default CSPRNG-backed generator.

// SOS builds an SOS beacon packet, mesh-relayed and urgent by default
// (spec §4.5: SOS traffic always sets mesh and urgent).
func SOS(gen *msgid.Generator, now time.Time, sos payload.SosPayload) *Builder {
	b := New(wire.SosBeacon, gen, now)
	b.WithFlags(wire.Flags{Mesh: true, Urgent: true, AckRequired: true})
	b.WithPayload(sos)
	return b
}

// Ping builds a keep-alive Ping packet with no payload.
func Ping(gen *msgid.Generator, now time.Time) *Builder {
	return New(wire.Ping, gen, now)
}

// Pong builds a Pong reply with no payload.
func Pong(gen *msgid.Generator, now time.Time) *Builder {
	return New(wire.Pong, gen, now)
}

// Text builds a short text message packet, selecting TextShort (Compact
// if it fits) or TextExtended (Standard) via the payload's Extended flag.
func Text(gen *msgid.Generator, now time.Time, text payload.TextPayload) *Builder {
	msgType := wire.TextShort
	if text.Extended {
		msgType = wire.TextExtended
	}
	b := New(msgType, gen, now)
	b.WithPayload(text)
	return b
}

// Ack builds an acknowledgement packet, selecting SosAck (Compact) or
// DataAck (Standard) per the AckPayload's Compact flag.
func Ack(gen *msgid.Generator, now time.Time, ack payload.AckPayload) *Builder {
	b := New(ack.Type(), gen, now)
	b.WithPayload(ack)
	return b
}

// Location builds a location-report packet.
func Location(gen *msgid.Generator, now time.Time, loc payload.LocationPayload) *Builder {
	b := New(wire.Location, gen, now)
	b.WithPayload(loc)
	return b
}
