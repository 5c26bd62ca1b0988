package payload

import "github.com/bitpack/bitpack/internal/wire"

// RawPayload is the opaque fallback for an unknown MessageType code
// (spec §3, §4.5): decoding never fails on type alone, so a CRC-valid
// frame carrying a type this build doesn't recognize is preserved
// byte-for-byte rather than dropped.
type RawPayload struct {
	TypeCode wire.MessageType
	Bytes    []byte
}

func (p RawPayload) Type() wire.MessageType { return p.TypeCode }
func (p RawPayload) SizeInBytes() int       { return len(p.Bytes) }
func (p RawPayload) Encode() []byte         { return append([]byte(nil), p.Bytes...) }

// DecodeRawPayload wraps data as an opaque RawPayload tagged with typeCode.
func DecodeRawPayload(typeCode wire.MessageType, data []byte) RawPayload {
	return RawPayload{TypeCode: typeCode, Bytes: append([]byte(nil), data...)}
}
