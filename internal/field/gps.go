// Package field implements the fixed-point GPS, packed-BCD phone, and
// international BCD field codecs used by SOS and location payloads
// (spec §4.3).
package field

import (
	"fmt"
	"math"
)

// CoordScale is the fixed-point scale factor applied to latitude and
// longitude before rounding to a signed 32-bit integer.
const CoordScale = 1e7

// EncodeLatitude maps a latitude in degrees to its signed 32-bit
// fixed-point (×10⁷) wire representation. lat must be in [-90, 90].
func EncodeLatitude(lat float64) (int32, error) {
	if lat < -90 || lat > 90 {
		return 0, fmt.Errorf("field: latitude %v out of range [-90,90]", lat)
	}
	return int32(math.Round(lat * CoordScale)), nil
}

// DecodeLatitude is the exact inverse of EncodeLatitude up to float
// rounding (~1.1 cm at the equator).
func DecodeLatitude(raw int32) float64 {
	return float64(raw) / CoordScale
}

// EncodeLongitude maps a longitude in degrees to its signed 32-bit
// fixed-point (×10⁷) wire representation. lon must be in [-180, 180].
func EncodeLongitude(lon float64) (int32, error) {
	if lon < -180 || lon > 180 {
		return 0, fmt.Errorf("field: longitude %v out of range [-180,180]", lon)
	}
	return int32(math.Round(lon * CoordScale)), nil
}

// DecodeLongitude is the exact inverse of EncodeLongitude up to float
// rounding.
func DecodeLongitude(raw int32) float64 {
	return float64(raw) / CoordScale
}
