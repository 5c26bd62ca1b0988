package mesh

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Default backoff parameters (spec §6 Backoff config).
const (
	DefaultBaseDelayMs   = 50.0
	DefaultMaxDelayMs    = 2000.0
	DefaultJitter        = 0.2
	DefaultHopMultiplier = 1.5
)

// RelayBackoff schedules randomized exponential-backoff relay timers and
// supports cancel-on-duplicate (spec §4.9): when the same message_id is
// heard again from another relayer while a relay is pending, the pending
// relay is cancelled. Each message_id has at most one pending relay.
// Rand is injected (a *rand.Rand, not math/rand's package-level source)
// so tests can seed it deterministically; jitter is not a security
// boundary so the non-cryptographic math/rand generator is appropriate
// here, unlike message IDs and crypto nonces (spec §5: "Random number
// generation is injected to enable deterministic tests").
type RelayBackoff struct {
	BaseDelayMs   float64
	MaxDelayMs    float64
	Jitter        float64
	HopMultiplier float64
	Rand          *rand.Rand

	mu      sync.Mutex
	pending map[uint32]*time.Timer
}

// NewRelayBackoff returns a RelayBackoff configured with the spec
// defaults; Rand defaults to a time-seeded source.
func NewRelayBackoff() *RelayBackoff {
	return &RelayBackoff{
		BaseDelayMs:   DefaultBaseDelayMs,
		MaxDelayMs:    DefaultMaxDelayMs,
		Jitter:        DefaultJitter,
		HopMultiplier: DefaultHopMultiplier,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		pending:       make(map[uint32]*time.Timer),
	}
}

func (b *RelayBackoff) randFloat() float64 {
	if b.Rand != nil {
		return b.Rand.Float64()
	}
	return rand.Float64()
}

// ComputeDelay returns the randomized exponential-backoff delay for a
// packet that has travelled hopCount hops since origination (spec
// §4.9): base = base_ms * hop_multiplier^hop_count; delay =
// uniform(base_ms, min(base,max_ms)) * (1 +/- jitter), clamped to
// [base_ms, max_ms].
func (b *RelayBackoff) ComputeDelay(hopCount int) time.Duration {
	if hopCount < 0 {
		hopCount = 0
	}
	base := b.BaseDelayMs * math.Pow(b.HopMultiplier, float64(hopCount))
	upper := base
	if upper > b.MaxDelayMs {
		upper = b.MaxDelayMs
	}
	lower := b.BaseDelayMs
	if lower > upper {
		lower = upper
	}

	delayMs := lower + b.randFloat()*(upper-lower)
	jitterFactor := 1 + (b.randFloat()*2-1)*b.Jitter
	delayMs *= jitterFactor

	if delayMs < b.BaseDelayMs {
		delayMs = b.BaseDelayMs
	}
	if delayMs > b.MaxDelayMs {
		delayMs = b.MaxDelayMs
	}
	return time.Duration(delayMs * float64(time.Millisecond))
}

// Schedule arms a relay timer for messageID that invokes fire after the
// computed backoff delay, unless Cancel is called first. Any previously
// pending relay for the same messageID is replaced (spec: "each
// message_id has at most one pending relay").
func (b *RelayBackoff) Schedule(messageID uint32, hopCount int, fire func()) {
	delay := b.ComputeDelay(hopCount)

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.pending[messageID]; ok {
		existing.Stop()
	}
	b.pending[messageID] = time.AfterFunc(delay, func() {
		b.mu.Lock()
		if b.pending[messageID] == nil {
			b.mu.Unlock()
			return
		}
		delete(b.pending, messageID)
		b.mu.Unlock()
		fire()
	})
}

// Cancel stops messageID's pending relay timer, if any, before it fires.
// It returns true if a pending timer existed and was cancelled.
func (b *RelayBackoff) Cancel(messageID uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	timer, ok := b.pending[messageID]
	if !ok {
		return false
	}
	delete(b.pending, messageID)
	return timer.Stop()
}

// Pending reports whether messageID currently has a relay scheduled.
func (b *RelayBackoff) Pending(messageID uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[messageID]
	return ok
}
