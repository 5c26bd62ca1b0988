// Package wire holds the shared wire-format enumerations — PacketMode,
// MessageType, and PacketFlags — used by both the header and payload
// packages (spec §3). Keeping them here avoids an import cycle between
// those two packages.
package wire

// PacketMode is the 1-bit discriminator carried in the MSB of byte 0 of
// every packet. It is fixed at construction and never changes in flight.
type PacketMode uint8

const (
	// ModeCompact is the 4-byte-header, CRC-8 framing for BLE 4.x links.
	ModeCompact PacketMode = 0
	// ModeStandard is the 11-byte-header, CRC-32 framing for BLE 5.0+ links.
	ModeStandard PacketMode = 1
)

func (m PacketMode) String() string {
	switch m {
	case ModeCompact:
		return "Compact"
	case ModeStandard:
		return "Standard"
	default:
		return "Unknown"
	}
}

// MessageType is the closed enumeration of payload kinds. Compact mode
// has 4 bits of codespace (0x0-0xF); Standard mode has 6 bits (0x00-0x3F).
// Types with a code above 0x0F require Standard mode.
type MessageType uint8

const (
	SosBeacon     MessageType = 0x00
	SosAck        MessageType = 0x01
	Location      MessageType = 0x02
	Ping          MessageType = 0x03
	Pong          MessageType = 0x04
	TextShort     MessageType = 0x05
	RelayAnnounce MessageType = 0x06

	// Standard-only types (code > 0x0F).
	HandshakeInit      MessageType = 0x10
	HandshakeAck       MessageType = 0x11
	DataEncrypted      MessageType = 0x12
	DataAck            MessageType = 0x13
	CapabilityQuery    MessageType = 0x14
	CapabilityResponse MessageType = 0x15
	Nack               MessageType = 0x16
	FragmentRequest    MessageType = 0x17
	TextExtended       MessageType = 0x18
	BinaryData         MessageType = 0x19
	GroupBroadcast     MessageType = 0x1A
	PeerDiscovery      MessageType = 0x1B
	TextLocation       MessageType = 0x1C
	Challenge          MessageType = 0x1D
)

// CompactMaxType is the highest type code usable in Compact framing.
const CompactMaxType = 0x0F

// StandardMaxType is the highest type code in the closed codespace.
const StandardMaxType = 0x3F

// RequiresStandard reports whether t can only be carried in Standard mode.
func (t MessageType) RequiresStandard() bool {
	return t > CompactMaxType
}

// knownNames backs String(); unknown/unassigned codes fall through to the
// plain string "Unknown" rather than panicking, mirroring how
// an unknown type decodes as RawPayload rather than failing.
var knownNames = map[MessageType]string{
	SosBeacon:          "SosBeacon",
	SosAck:             "SosAck",
	Location:           "Location",
	Ping:               "Ping",
	Pong:               "Pong",
	TextShort:          "TextShort",
	RelayAnnounce:      "RelayAnnounce",
	HandshakeInit:      "HandshakeInit",
	HandshakeAck:       "HandshakeAck",
	DataEncrypted:      "DataEncrypted",
	DataAck:            "DataAck",
	CapabilityQuery:    "CapabilityQuery",
	CapabilityResponse: "CapabilityResponse",
	Nack:               "Nack",
	FragmentRequest:    "FragmentRequest",
	TextExtended:       "TextExtended",
	BinaryData:         "BinaryData",
	GroupBroadcast:     "GroupBroadcast",
	PeerDiscovery:      "PeerDiscovery",
	TextLocation:       "TextLocation",
	Challenge:          "Challenge",
}

func (t MessageType) String() string {
	if name, ok := knownNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Flags is the behavioral-contract flag set (spec §3). Compact mode only
// exposes {Mesh, AckRequired, Encrypted, Compressed, Urgent}; Standard
// mode exposes all seven, including fragmentation flags.
type Flags struct {
	Mesh          bool
	AckRequired   bool
	Encrypted     bool
	Compressed    bool
	Urgent        bool
	IsFragment    bool
	MoreFragments bool
}
