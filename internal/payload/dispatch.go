package payload

import "github.com/bitpack/bitpack/internal/wire"

// Decode dispatches to the concrete payload decoder for typeCode given the
// framing mode, falling back to RawPayload for any type code this build
// does not carry a dedicated struct for (spec §4.5, §4.6): this covers
// both out-of-codespace codes and in-codespace types (Ping, Pong,
// HandshakeInit, ...) that the closed payload set does not model
// explicitly. Decode errors from a recognized type are returned as-is;
// they are never downgraded to a Raw payload, so a malformed SOS or Text
// body is still surfaced to the caller.
func Decode(mode wire.PacketMode, typeCode wire.MessageType, data []byte) (Payload, error) {
	switch typeCode {
	case wire.SosBeacon:
		return DecodeSosPayload(data)
	case wire.Location:
		return DecodeLocationPayload(data)
	case wire.TextShort:
		return DecodeTextPayload(data, false)
	case wire.TextExtended:
		return DecodeTextPayload(data, true)
	case wire.SosAck:
		return DecodeAckPayload(data, true)
	case wire.DataAck:
		return DecodeAckPayload(data, false)
	case wire.Nack:
		return DecodeNackPayload(data)
	case wire.TextLocation:
		return DecodeTextLocationPayload(data)
	case wire.Challenge:
		return DecodeChallengePayload(data)
	default:
		return DecodeRawPayload(typeCode, data), nil
	}
}
