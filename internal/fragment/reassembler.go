// Package fragment implements the MTU-sized splitter, the out-of-order
// reassembler, and the selective-repeat NACK strategy that recover a
// logical payload sent as several Standard packets (spec §4.7).
package fragment

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/bitpack/bitpack/internal/biterr"
)

// DefaultMaxBuffers is the default bound on concurrently in-flight
// reassembly buffers (spec §6 Fragmentation config).
const DefaultMaxBuffers = 100

// DefaultReassemblyTimeout is the default per-buffer idle timeout before
// a reassembly buffer is swept away (spec §6).
const DefaultReassemblyTimeout = 5 * time.Minute

// Buffer accumulates the chunks of one in-flight fragmented message.
type Buffer struct {
	MessageID    uint32
	Total        uint16
	Chunks       map[uint16][]byte
	FirstSeen    time.Time
	LastActivity time.Time
}

// complete reports whether every chunk 0..Total-1 has arrived.
func (b *Buffer) complete() bool {
	return len(b.Chunks) == int(b.Total)
}

// assemble concatenates chunks in index order. Caller must have already
// verified completeness.
func (b *Buffer) assemble() []byte {
	out := make([]byte, 0, len(b.Chunks)*len(b.Chunks[0]))
	for i := uint16(0); i < b.Total; i++ {
		out = append(out, b.Chunks[i]...)
	}
	return out
}

// Missing returns the sorted indices not yet received.
func (b *Buffer) Missing() []uint16 {
	var missing []uint16
	for i := uint16(0); i < b.Total; i++ {
		if _, ok := b.Chunks[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// EvictReason identifies why a buffer left the reassembler outside of
// normal completion.
type EvictReason int

const (
	// EvictedCapacity means the buffer was dropped to make room under
	// MaxBuffers (oldest by last activity, LRU).
	EvictedCapacity EvictReason = iota
	// EvictedTimeout means the buffer sat idle past ReassemblyTimeout.
	EvictedTimeout
)

// Reassembler rebuilds logical payloads from out-of-order, possibly
// duplicated Standard fragments (spec §4.7). Storage is backed by
// patrickmn/go-cache for per-buffer TTL expiry; an in-process
// container/list tracks most-recently-used order so MaxBuffers capacity
// can be enforced independently of the TTL (go-cache alone has no
// capacity-bound eviction). OnEvict, if set, is invoked whenever a buffer
// leaves the reassembler before completing, so the caller can react to
// the loss (e.g. by emitting a RetryExceeded event); nothing in this
// package sets it.
type Reassembler struct {
	MaxBuffers int
	Timeout    time.Duration
	OnEvict    func(messageID uint32, reason EvictReason)

	mu       sync.Mutex
	store    *gocache.Cache
	order    *list.List
	elements map[uint32]*list.Element
}

// NewReassembler returns a Reassembler with the given capacity and
// per-buffer idle timeout.
func NewReassembler(maxBuffers int, timeout time.Duration) *Reassembler {
	if maxBuffers <= 0 {
		maxBuffers = DefaultMaxBuffers
	}
	if timeout <= 0 {
		timeout = DefaultReassemblyTimeout
	}
	return &Reassembler{
		MaxBuffers: maxBuffers,
		Timeout:    timeout,
		store:      gocache.New(timeout, timeout/2),
		order:      list.New(),
		elements:   make(map[uint32]*list.Element),
	}
}

func (r *Reassembler) touch(messageID uint32) {
	if el, ok := r.elements[messageID]; ok {
		r.order.MoveToBack(el)
		return
	}
	r.elements[messageID] = r.order.PushBack(messageID)
}

func (r *Reassembler) forget(messageID uint32) {
	if el, ok := r.elements[messageID]; ok {
		r.order.Remove(el)
		delete(r.elements, messageID)
	}
	r.store.Delete(fmt.Sprint(messageID))
}

// evictOldestLocked drops the least-recently-touched buffer to make room
// for a new one; caller must hold mu.
func (r *Reassembler) evictOldestLocked() {
	front := r.order.Front()
	if front == nil {
		return
	}
	oldest := front.Value.(uint32)
	r.forget(oldest)
	if r.OnEvict != nil {
		r.OnEvict(oldest, EvictedCapacity)
	}
}

// AddFragment records one fragment of messageID. It rejects a total that
// mismatches an existing buffer for the same messageID (spec §4.7). When
// the buffer becomes complete, it returns the reassembled payload bytes
// and complete=true; duplicate or out-of-order fragments are otherwise
// accepted silently.
func (r *Reassembler) AddFragment(messageID uint32, index, total uint16, data []byte, now time.Time) (payloadBytes []byte, complete bool, err error) {
	if total == 0 || index >= total {
		return nil, false, fmt.Errorf("fragment: index %d/%d invalid: %w", index, total, biterr.ErrFragmentation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprint(messageID)
	var buf *Buffer
	if raw, ok := r.store.Get(key); ok {
		buf = raw.(*Buffer)
		if buf.Total != total {
			return nil, false, fmt.Errorf("fragment: message %d total mismatch (%d vs %d): %w", messageID, buf.Total, total, biterr.ErrFragmentation)
		}
	} else {
		if len(r.elements) >= r.MaxBuffers {
			r.evictOldestLocked()
		}
		buf = &Buffer{
			MessageID: messageID,
			Total:     total,
			Chunks:    make(map[uint16][]byte),
			FirstSeen: now,
		}
	}

	buf.Chunks[index] = append([]byte(nil), data...)
	buf.LastActivity = now
	r.store.Set(key, buf, r.Timeout)
	r.touch(messageID)

	if buf.complete() {
		assembled := buf.assemble()
		r.forget(messageID)
		return assembled, true, nil
	}
	return nil, false, nil
}

// Get returns the current buffer for messageID, if any, without mutating
// LRU order.
func (r *Reassembler) Get(messageID uint32) (*Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.store.Get(fmt.Sprint(messageID))
	if !ok {
		return nil, false
	}
	return raw.(*Buffer), true
}

// Cleanup sweeps buffers whose LastActivity is older than Timeout as of
// now, removing them and invoking OnEvict with EvictedTimeout for each.
// go-cache's own background janitor independently expires entries on the
// same timeout; Cleanup exists so callers can force a deterministic sweep
// (e.g. in tests) and so OnEvict fires synchronously rather than racing
// the janitor goroutine.
func (r *Reassembler) Cleanup(now time.Time) []uint32 {
	r.mu.Lock()
	var stale []uint32
	for id, el := range r.elements {
		raw, ok := r.store.Get(fmt.Sprint(id))
		if !ok {
			stale = append(stale, id)
			continue
		}
		buf := raw.(*Buffer)
		if now.Sub(buf.LastActivity) >= r.Timeout {
			stale = append(stale, id)
		}
		_ = el
	}
	for _, id := range stale {
		r.forget(id)
	}
	r.mu.Unlock()

	for _, id := range stale {
		if r.OnEvict != nil {
			r.OnEvict(id, EvictedTimeout)
		}
	}
	return stale
}

// Count returns the number of in-flight buffers.
func (r *Reassembler) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.elements)
}
