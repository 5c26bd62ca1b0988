package mesh

import (
	"time"

	"github.com/bitpack/bitpack/internal/events"
	"github.com/bitpack/bitpack/internal/logging"
	"github.com/bitpack/bitpack/internal/packet"
)

// BroadcastFunc hands an outbound packet to the transport boundary (spec
// §6: "a broadcast(bytes) -> future<()> sink"). The mesh controller
// itself is transport-agnostic; the caller supplies this callback.
type BroadcastFunc func(pkt packet.Packet) error

// Controller is the mesh runtime tying together duplicate suppression,
// the relay policy, and randomized backoff (spec §4.9). Its state
// (MessageCache, RelayBackoff.pending) is owned by the controller and
// mutated only from calls into it; external callers interact through
// HandlePacket/Originate, matching the single-threaded-cooperative
// scheduling model of spec §5.
type Controller struct {
	Cache      *MessageCache
	Backoff    *RelayBackoff
	Policy     RelayPolicy
	Broadcast  BroadcastFunc
	Emitter    events.Emitter
	Log        *logging.Logger
	DefaultTTL uint8 // assumed original hop_ttl, used to estimate hop_count for backoff
}

// NewController wires a Controller from its collaborators. emitter and
// log may be nil; a nil emitter is replaced by events.NopEmitter, and a
// nil logger disables logging (the controller checks Log before each
// use, since *logging.Logger methods are not nil-safe).
func NewController(cache *MessageCache, backoff *RelayBackoff, policy RelayPolicy, broadcast BroadcastFunc, emitter events.Emitter, log *logging.Logger, defaultTTL uint8) *Controller {
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &Controller{
		Cache:      cache,
		Backoff:    backoff,
		Policy:     policy,
		Broadcast:  broadcast,
		Emitter:    emitter,
		Log:        log,
		DefaultTTL: defaultTTL,
	}
}

// HandlePacket processes one inbound packet per spec §4.9's ordering:
// cancel-on-duplicate, then dedup, then (for a genuinely new packet)
// relay scheduling. fromPeer identifies the sender for per-peer relay
// bookkeeping; it may be empty if unknown.
func (c *Controller) HandlePacket(pkt packet.Packet, fromPeer string, now time.Time) {
	id := pkt.MessageID()

	if c.Backoff.Cancel(id) {
		c.Emitter.Emit(events.EventRelayCancelled, events.RelayCancelledData{MessageID: id})
	}

	isNew := c.Cache.Observe(id, now)
	c.Emitter.Emit(events.EventPacketReceived, events.PacketReceivedData{
		MessageID: id,
		IsNew:     isNew,
		FromPeer:  fromPeer,
	})

	if !isNew {
		return
	}

	if !c.Policy.ShouldRelay(pkt, now) {
		return
	}

	prepared := c.Policy.PrepareForRelay(pkt, now)
	if fromPeer != "" {
		c.Cache.MarkRelayedTo(id, fromPeer)
	}

	hopCount := int(c.DefaultTTL) - int(pkt.HopTTL())
	scheduledAt := now
	c.Backoff.Schedule(id, hopCount, func() {
		if c.Broadcast == nil {
			return
		}
		if err := c.Broadcast(prepared); err != nil {
			if c.Log != nil {
				c.Log.Warn("mesh: relay broadcast for message %d failed: %v", id, err)
			}
			return
		}
		c.Emitter.Emit(events.EventPacketRelayed, events.PacketRelayedData{
			MessageID: id,
			Delay:     time.Since(scheduledAt),
		})
	})
}

// Originate broadcasts a packet this node is sending for the first time.
// The message ID is recorded in the cache immediately (echo suppression:
// spec §4.9 "broadcast(packet) inserts the id into the cache immediately
// ... and calls the broadcast callback without backoff").
func (c *Controller) Originate(pkt packet.Packet, now time.Time) error {
	c.Cache.Observe(pkt.MessageID(), now)
	if c.Broadcast == nil {
		return nil
	}
	return c.Broadcast(pkt)
}
