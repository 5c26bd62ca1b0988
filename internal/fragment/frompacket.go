package fragment

import (
	"fmt"
	"time"

	"github.com/bitpack/bitpack/internal/header"
	"github.com/bitpack/bitpack/internal/packet"
	"github.com/bitpack/bitpack/internal/payload"
)

// AddFromPacket feeds a decoded fragment packet (IsFragment set) into the
// reassembler. It expects pkt.Payload to be the RawPayload produced by
// packet.Decode for a fragment frame: a 3-byte FragmentHeader followed by
// the chunk bytes.
func (r *Reassembler) AddFromPacket(pkt packet.Packet, now time.Time) (payloadBytes []byte, complete bool, err error) {
	if !pkt.Standard.IsFragment {
		return nil, false, fmt.Errorf("fragment: packet is not a fragment")
	}
	raw, ok := pkt.Payload.(payload.RawPayload)
	if !ok {
		return nil, false, fmt.Errorf("fragment: fragment packet payload is not RawPayload")
	}
	if len(raw.Bytes) < header.FragmentHeaderSize {
		return nil, false, fmt.Errorf("fragment: fragment body shorter than header")
	}

	fh, err := header.DecodeFragmentHeader(raw.Bytes)
	if err != nil {
		return nil, false, err
	}
	chunk := raw.Bytes[header.FragmentHeaderSize:]

	return r.AddFragment(pkt.Standard.MessageID, fh.Index, fh.Total, chunk, now)
}
