// Package header implements the CompactHeader and StandardHeader wire
// structures (spec §3, §4.4): encode/decode, validation, and the
// relative-age/TTL relay bookkeeping.
package header

import (
	"fmt"
	"time"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/wire"
)

// CompactSize is the fixed size in bytes of a CompactHeader.
const CompactSize = 4

// StandardSize is the fixed size in bytes of a StandardHeader.
const StandardSize = 11

// FragmentHeaderSize is the fixed size in bytes of a FragmentHeader.
const FragmentHeaderSize = 3

// SecurityMode is the 3-bit security-mode field of a StandardHeader.
type SecurityMode uint8

const (
	SecurityNone      SecurityMode = 0
	SecurityEncrypted SecurityMode = 1
	SecurityChallenge SecurityMode = 2
)

// MaxCompactTTL is the largest hop count a 4-bit Compact TTL field can hold.
const MaxCompactTTL = 15

// MaxPayloadLength is the largest value the 13-bit Standard
// payload_length field can hold.
const MaxPayloadLength = 8191

// MaxAgeMinutes is the largest value the 16-bit age_minutes field can hold.
const MaxAgeMinutes = 65535

// CompactHeader is the 4-byte header used on BLE 4.x links (spec §3).
type CompactHeader struct {
	Type        wire.MessageType
	Mesh        bool
	AckRequired bool
	Encrypted   bool
	TTL         uint8 // 0-15
	Compressed  bool
	Urgent      bool
	MessageID   uint16
}

// Validate checks the header's fields against the Compact constraints
// (spec §4.4): type code <= 0x0F, ttl <= 15. MessageID is always in
// range since it is a uint16.
func (h CompactHeader) Validate() error {
	if h.Type.RequiresStandard() {
		return fmt.Errorf("header: type %s requires Standard mode: %w", h.Type, biterr.ErrInvalidType)
	}
	if h.TTL > MaxCompactTTL {
		return fmt.Errorf("header: ttl %d exceeds %d: %w", h.TTL, MaxCompactTTL, biterr.ErrOutOfRange)
	}
	return nil
}

// Encode serializes h into a 4-byte CompactHeader per spec §4.4:
//
//	byte 0: mode=0 | type(4b) | mesh(1b) | ack(1b) | enc(1b)
//	byte 1: ttl(4b) | compressed(1b) | urgent(1b) | reserved(2b)
//	bytes 2-3: message_id big-endian
func (h CompactHeader) Encode() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, CompactSize)

	var b0 byte
	b0 |= byte(h.Type&0x0F) << 3
	if h.Mesh {
		b0 |= 1 << 2
	}
	if h.AckRequired {
		b0 |= 1 << 1
	}
	if h.Encrypted {
		b0 |= 1
	}
	buf[0] = b0

	var b1 byte
	b1 |= (h.TTL & 0x0F) << 4
	if h.Compressed {
		b1 |= 1 << 3
	}
	if h.Urgent {
		b1 |= 1 << 2
	}
	buf[1] = b1

	buf[2] = byte(h.MessageID >> 8)
	buf[3] = byte(h.MessageID)

	return buf, nil
}

// DecodeCompactHeader parses a 4-byte CompactHeader from the front of
// data. Extra trailing bytes are ignored (the caller slices payload/trailer
// separately).
func DecodeCompactHeader(data []byte) (CompactHeader, error) {
	if len(data) < CompactSize {
		return CompactHeader{}, fmt.Errorf("header: need %d bytes, got %d: %w", CompactSize, len(data), biterr.ErrInsufficientBytes)
	}
	if data[0]&0x80 != 0 {
		return CompactHeader{}, fmt.Errorf("header: mode bit set in Compact decode: %w", biterr.ErrInvalidMode)
	}

	b0 := data[0]
	h := CompactHeader{
		Type:        wire.MessageType((b0 >> 3) & 0x0F),
		Mesh:        b0&(1<<2) != 0,
		AckRequired: b0&(1<<1) != 0,
		Encrypted:   b0&1 != 0,
	}

	b1 := data[1]
	h.TTL = (b1 >> 4) & 0x0F
	h.Compressed = b1&(1<<3) != 0
	h.Urgent = b1&(1<<2) != 0

	h.MessageID = uint16(data[2])<<8 | uint16(data[3])

	return h, nil
}

// PrepareForRelay returns a new CompactHeader with hop TTL decremented,
// saturating at 0 (spec §4.9).
func (h CompactHeader) PrepareForRelay() CompactHeader {
	out := h
	if out.TTL > 0 {
		out.TTL--
	}
	return out
}

// StandardHeader is the 11-byte header used on BLE 5.0+ links (spec §3).
// ReceivedAt is set locally on decode and is never serialized; it backs
// the relative-age accounting in CurrentAgeMinutes.
type StandardHeader struct {
	Version       uint8
	Type          wire.MessageType
	Mesh          bool
	AckRequired   bool
	Encrypted     bool
	Compressed    bool
	Urgent        bool
	IsFragment    bool
	MoreFragments bool
	HopTTL        uint8
	MessageID     uint32
	SecurityMode  SecurityMode
	PayloadLength uint16 // 13-bit, max MaxPayloadLength
	AgeMinutes    uint16

	// ReceivedAt is set by DecodeStandardHeader to the local decode time;
	// it is never part of the wire encoding.
	ReceivedAt time.Time
}

// Validate checks the header's fields against the Standard constraints
// (spec §4.4).
func (h StandardHeader) Validate() error {
	if h.PayloadLength > MaxPayloadLength {
		return fmt.Errorf("header: payload_length %d exceeds %d: %w", h.PayloadLength, MaxPayloadLength, biterr.ErrOutOfRange)
	}
	if int(h.Type) > wire.StandardMaxType {
		return fmt.Errorf("header: type code %#x outside closed codespace: %w", h.Type, biterr.ErrInvalidType)
	}
	return nil
}

// flagsByte packs the Standard flags byte: mesh,ack,enc,comp,urg,frag,more_frag,rsv.
func (h StandardHeader) flagsByte() byte {
	var b byte
	if h.Mesh {
		b |= 1 << 7
	}
	if h.AckRequired {
		b |= 1 << 6
	}
	if h.Encrypted {
		b |= 1 << 5
	}
	if h.Compressed {
		b |= 1 << 4
	}
	if h.Urgent {
		b |= 1 << 3
	}
	if h.IsFragment {
		b |= 1 << 2
	}
	if h.MoreFragments {
		b |= 1 << 1
	}
	return b
}

// Encode serializes h into an 11-byte StandardHeader per spec §4.4/§6:
//
//	byte 0:     mode=1 | version(1b) | type(6b)
//	byte 1:     flags
//	byte 2:     hop_ttl
//	bytes 3-6:  message_id big-endian
//	byte 7:     sec_mode(3b) | payload_length_high(5b)
//	byte 8:     payload_length_low
//	bytes 9-10: age_minutes big-endian
func (h StandardHeader) Encode() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, StandardSize)

	buf[0] = 1<<7 | (h.Version&1)<<6 | byte(h.Type)&0x3F
	buf[1] = h.flagsByte()
	buf[2] = h.HopTTL
	buf[3] = byte(h.MessageID >> 24)
	buf[4] = byte(h.MessageID >> 16)
	buf[5] = byte(h.MessageID >> 8)
	buf[6] = byte(h.MessageID)
	buf[7] = byte(h.SecurityMode&0x07)<<5 | byte(h.PayloadLength>>8)&0x1F
	buf[8] = byte(h.PayloadLength)
	buf[9] = byte(h.AgeMinutes >> 8)
	buf[10] = byte(h.AgeMinutes)

	return buf, nil
}

// DecodeStandardHeader parses an 11-byte StandardHeader from the front of
// data and stamps ReceivedAt with now.
func DecodeStandardHeader(data []byte, now time.Time) (StandardHeader, error) {
	if len(data) < StandardSize {
		return StandardHeader{}, fmt.Errorf("header: need %d bytes, got %d: %w", StandardSize, len(data), biterr.ErrInsufficientBytes)
	}
	if data[0]&0x80 == 0 {
		return StandardHeader{}, fmt.Errorf("header: mode bit clear in Standard decode: %w", biterr.ErrInvalidMode)
	}

	h := StandardHeader{
		Version: (data[0] >> 6) & 0x01,
		Type:    wire.MessageType(data[0] & 0x3F),
	}

	flags := data[1]
	h.Mesh = flags&(1<<7) != 0
	h.AckRequired = flags&(1<<6) != 0
	h.Encrypted = flags&(1<<5) != 0
	h.Compressed = flags&(1<<4) != 0
	h.Urgent = flags&(1<<3) != 0
	h.IsFragment = flags&(1<<2) != 0
	h.MoreFragments = flags&(1<<1) != 0

	h.HopTTL = data[2]
	h.MessageID = uint32(data[3])<<24 | uint32(data[4])<<16 | uint32(data[5])<<8 | uint32(data[6])

	h.SecurityMode = SecurityMode((data[7] >> 5) & 0x07)
	h.PayloadLength = uint16(data[7]&0x1F)<<8 | uint16(data[8])

	h.AgeMinutes = uint16(data[9])<<8 | uint16(data[10])
	h.ReceivedAt = now

	return h, nil
}

// CurrentAgeMinutes returns the relative age of the packet as of `now`:
// the serialized age_minutes plus the local hold time elapsed since
// ReceivedAt (spec §4.4). If ReceivedAt is the zero value (header built
// in-process, never decoded from the wire) the serialized age is
// returned unchanged.
func (h StandardHeader) CurrentAgeMinutes(now time.Time) uint32 {
	age := uint32(h.AgeMinutes)
	if h.ReceivedAt.IsZero() {
		return age
	}
	held := now.Sub(h.ReceivedAt)
	if held > 0 {
		age += uint32(held.Minutes())
	}
	return age
}

// IsExpired reports whether the packet must not be relayed: hop_ttl is
// exhausted, or its current relative age has reached maxAgeMinutes
// (spec §4.4, default 1440).
func (h StandardHeader) IsExpired(now time.Time, maxAgeMinutes uint32) bool {
	if h.HopTTL == 0 {
		return true
	}
	return h.CurrentAgeMinutes(now) >= maxAgeMinutes
}

// PrepareForRelay returns a new StandardHeader with hop_ttl decremented
// (saturating at 0) and age_minutes set to the current relative age as
// of now, clamped to MaxAgeMinutes. The returned header's ReceivedAt is
// reset so a later relay measures its own hold time independently.
func (h StandardHeader) PrepareForRelay(now time.Time) StandardHeader {
	out := h
	if out.HopTTL > 0 {
		out.HopTTL--
	}
	age := h.CurrentAgeMinutes(now)
	if age > MaxAgeMinutes {
		age = MaxAgeMinutes
	}
	out.AgeMinutes = uint16(age)
	out.ReceivedAt = time.Time{}
	return out
}

// FragmentHeader is the 3-byte header prepended to a fragment's payload
// when IsFragment is set (spec §3, §6):
//
//	byte 0: fragment_index[11:4]
//	byte 1: fragment_index[3:0] | total_fragments[11:8]
//	byte 2: total_fragments[7:0]
type FragmentHeader struct {
	Index uint16 // 0 <= Index < Total <= 4095
	Total uint16
}

// Validate enforces the fragment invariant 0 <= index < total <= 4095
// (spec invariant I3).
func (f FragmentHeader) Validate() error {
	if f.Total == 0 || f.Total > 4095 {
		return fmt.Errorf("header: fragment total %d out of range: %w", f.Total, biterr.ErrFragmentation)
	}
	if f.Index >= f.Total {
		return fmt.Errorf("header: fragment index %d >= total %d: %w", f.Index, f.Total, biterr.ErrFragmentation)
	}
	return nil
}

// Encode serializes f into its 3-byte wire form.
func (f FragmentHeader) Encode() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, FragmentHeaderSize)
	buf[0] = byte(f.Index >> 4)
	buf[1] = byte(f.Index<<4) | byte(f.Total>>8)
	buf[2] = byte(f.Total)
	return buf, nil
}

// DecodeFragmentHeader parses a 3-byte FragmentHeader from the front of data.
func DecodeFragmentHeader(data []byte) (FragmentHeader, error) {
	if len(data) < FragmentHeaderSize {
		return FragmentHeader{}, fmt.Errorf("header: need %d bytes, got %d: %w", FragmentHeaderSize, len(data), biterr.ErrInsufficientBytes)
	}
	index := uint16(data[0])<<4 | uint16(data[1]>>4)
	total := uint16(data[1]&0x0F)<<8 | uint16(data[2])
	f := FragmentHeader{Index: index, Total: total}
	if err := f.Validate(); err != nil {
		return FragmentHeader{}, err
	}
	return f, nil
}
