package payload

import (
	"fmt"

	"github.com/bitpack/bitpack/internal/biterr"
	"github.com/bitpack/bitpack/internal/bitio"
	"github.com/bitpack/bitpack/internal/field"
	"github.com/bitpack/bitpack/internal/wire"
)

// LocationPayload carries a GPS fix, optionally with altitude and
// accuracy (spec §3): 8 bytes when those are absent, 12 when present.
type LocationPayload struct {
	Latitude    float64
	Longitude   float64
	HasAltitude bool
	AltitudeM   int16  // signed, meters
	AccuracyM   uint16 // unsigned, meters
}

func (LocationPayload) Type() wire.MessageType { return wire.Location }

func (p LocationPayload) SizeInBytes() int {
	if p.HasAltitude {
		return 12
	}
	return 8
}

// Encode serializes p into its 8- or 12-byte wire form.
func (p LocationPayload) Encode() []byte {
	buf := make([]byte, p.SizeInBytes())
	lat, _ := field.EncodeLatitude(p.Latitude)
	lon, _ := field.EncodeLongitude(p.Longitude)
	bitio.PutInt32(buf[0:4], lat)
	bitio.PutInt32(buf[4:8], lon)
	if p.HasAltitude {
		bitio.PutInt16(buf[8:10], p.AltitudeM)
		bitio.PutUint16(buf[10:12], p.AccuracyM)
	}
	return buf
}

// DecodeLocationPayload parses an 8- or 12-byte LocationPayload.
func DecodeLocationPayload(data []byte) (LocationPayload, error) {
	if len(data) != 8 && len(data) != 12 {
		return LocationPayload{}, fmt.Errorf("payload: location requires 8 or 12 bytes, got %d: %w", len(data), biterr.ErrInsufficientBytes)
	}
	p := LocationPayload{
		Latitude:  field.DecodeLatitude(bitio.Int32(data[0:4])),
		Longitude: field.DecodeLongitude(bitio.Int32(data[4:8])),
	}
	if len(data) == 12 {
		p.HasAltitude = true
		p.AltitudeM = bitio.Int16(data[8:10])
		p.AccuracyM = bitio.Uint16(data[10:12])
	}
	return p, nil
}
