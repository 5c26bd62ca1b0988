// Package payload implements the closed set of typed payloads carried by
// a BitPack packet (spec §3, §4.5): SOS, Location, Text, Ack, Nack,
// TextLocation, Challenge, and the opaque Raw fallback for unknown type
// codes.
package payload

import (
	"fmt"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/bitio"
	"github.com/bitpack/bitpack/internal/field"
	"github.com/bitpack/bitpack/internal/wire"
)

// Payload is implemented by every concrete payload kind plus RawPayload.
// Decode is a free function per type (Go has no constructor-in-interface),
// collected into the dispatch table in dispatch.go.
type Payload interface {
	Type() wire.MessageType
	SizeInBytes() int
	Encode() []byte
}

// SosSize is the fixed wire size of an SosPayload.
const SosSize = 15

// SosType is the 3-bit emergency classification carried in an SOS beacon.
type SosType uint8

const (
	NeedRescue SosType = 0
	Trapped    SosType = 1
	Injured    SosType = 2
	Fire       SosType = 3
	Flood      SosType = 4
	Medical    SosType = 5
	Other      SosType = 6
	// bit pattern 7 is reserved; decode falls back to NeedRescue (spec §4.5).
)

func (s SosType) String() string {
	switch s {
	case NeedRescue:
		return "NeedRescue"
	case Trapped:
		return "Trapped"
	case Injured:
		return "Injured"
	case Fire:
		return "Fire"
	case Flood:
		return "Flood"
	case Medical:
		return "Medical"
	case Other:
		return "Other"
	default:
		return "NeedRescue"
	}
}

// sosTypeFromBits maps the raw 3-bit field to a SosType, falling back to
// NeedRescue for the unassigned/reserved bit pattern (spec §4.5:
// "invalid SOS type bits fall back to NeedRescue rather than fail").
func sosTypeFromBits(bits byte) SosType {
	if bits > byte(Other) {
		return NeedRescue
	}
	return SosType(bits)
}

// SosPayload is the fixed 15-byte SOS beacon (spec §3).
type SosPayload struct {
	SosType      SosType
	PeopleCount  uint8 // 0-7
	HasInjured   bool
	IsTrapped    bool
	Latitude     float64
	Longitude    float64
	Phone        string // up to 8 digits; may be empty if the BCD field was malformed
	PhoneValid   bool
	AltitudeM    uint16 // 0-4095
	BatteryCoded uint8  // 0-15, battery = round(percent*15/100)
}

func (SosPayload) Type() wire.MessageType { return wire.SosBeacon }
func (SosPayload) SizeInBytes() int       { return SosSize }

// NewSosPayload validates coordinates and phone digits and returns a ready
// to encode SosPayload. Constructing the struct literal directly skips
// validation, matching the header package's convention that a builder
// producing an invalid value is a programming bug, not a data error.
func NewSosPayload(sosType SosType, peopleCount uint8, hasInjured, isTrapped bool, lat, lon float64, phone string, altitudeM uint16, batteryCoded uint8) (SosPayload, error) {
	if _, err := field.EncodeLatitude(lat); err != nil {
		return SosPayload{}, err
	}
	if _, err := field.EncodeLongitude(lon); err != nil {
		return SosPayload{}, err
	}
	if _, err := field.EncodeLastDigits(phone, 8); err != nil {
		return SosPayload{}, err
	}
	if peopleCount > 0x07 {
		return SosPayload{}, fmt.Errorf("payload: people_count %d exceeds 3-bit field: %w", peopleCount, biterr.ErrOutOfRange)
	}
	if altitudeM > 0x0FFF {
		return SosPayload{}, fmt.Errorf("payload: altitude %d exceeds 12-bit field: %w", altitudeM, biterr.ErrOutOfRange)
	}
	if batteryCoded > 0x0F {
		return SosPayload{}, fmt.Errorf("payload: battery_coded %d exceeds 4-bit field: %w", batteryCoded, biterr.ErrOutOfRange)
	}
	return SosPayload{
		SosType:      sosType,
		PeopleCount:  peopleCount,
		HasInjured:   hasInjured,
		IsTrapped:    isTrapped,
		Latitude:     lat,
		Longitude:    lon,
		Phone:        phone,
		PhoneValid:   true,
		AltitudeM:    altitudeM,
		BatteryCoded: batteryCoded,
	}, nil
}

// Encode serializes p into its fixed 15-byte wire form (spec §3):
//
//	byte 0:     sos_type(3b) | people_count(3b) | has_injured(1b) | is_trapped(1b)
//	bytes 1-4:  latitude x10^7, signed 32-bit
//	bytes 5-8:  longitude x10^7, signed 32-bit
//	bytes 9-12: packed BCD phone, up to 8 digits, 0xFF-padded
//	bytes 13-14: altitude_meters(12b) | battery_coded(4b)
func (p SosPayload) Encode() []byte {
	buf := make([]byte, SosSize)

	buf[0] = (byte(p.SosType)&0x07)<<5 | (p.PeopleCount&0x07)<<2
	if p.HasInjured {
		buf[0] |= 1 << 1
	}
	if p.IsTrapped {
		buf[0] |= 1
	}

	lat, _ := field.EncodeLatitude(p.Latitude)
	lon, _ := field.EncodeLongitude(p.Longitude)
	bitio.PutInt32(buf[1:5], lat)
	bitio.PutInt32(buf[5:9], lon)

	for i := 9; i < 13; i++ {
		buf[i] = 0xFF
	}
	if p.PhoneValid {
		phoneBytes, _ := field.EncodeLastDigits(p.Phone, 8)
		copy(buf[9:13], phoneBytes)
	}

	alt := p.AltitudeM
	if alt > 0x0FFF {
		alt = 0x0FFF
	}
	buf[13] = byte(alt >> 4)
	buf[14] = byte(alt<<4) | (p.BatteryCoded & 0x0F)

	return buf
}

// DecodeSosPayload parses a 15-byte SosPayload. Decode is strict on
// length (spec §4.5): any other length is InsufficientBytes. A malformed
// phone BCD field decodes with PhoneValid=false rather than failing
// (emergency-resilience principle); reserved SOS type bits fall back to
// NeedRescue.
func DecodeSosPayload(data []byte) (SosPayload, error) {
	if len(data) != SosSize {
		return SosPayload{}, fmt.Errorf("payload: sos requires exactly %d bytes, got %d: %w", SosSize, len(data), biterr.ErrInsufficientBytes)
	}

	p := SosPayload{
		SosType:     sosTypeFromBits((data[0] >> 5) & 0x07),
		PeopleCount: (data[0] >> 2) & 0x07,
		HasInjured:  data[0]&(1<<1) != 0,
		IsTrapped:   data[0]&1 != 0,
	}

	p.Latitude = field.DecodeLatitude(bitio.Int32(data[1:5]))
	p.Longitude = field.DecodeLongitude(bitio.Int32(data[5:9]))

	phone, ok := field.DecodePhoneBCD(data[9:13])
	p.Phone = phone
	p.PhoneValid = ok

	p.AltitudeM = uint16(data[13])<<4 | uint16(data[14]>>4)
	p.BatteryCoded = data[14] & 0x0F

	return p, nil
}
