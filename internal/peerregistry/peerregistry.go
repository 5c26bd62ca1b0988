// Package peerregistry is a bounded in-memory table of observed BLE
// peers (spec component #12, optional): last-seen time, RSSI, and
// rx/tx message counters, exported as Prometheus gauges/counters. It is
// a passive relay-hint signal — the mesh controller does not depend on
// it, applications layered on top register it as an optional observer.
package peerregistry

import (
	"container/list"
	"sync"
	"time"
)

// DefaultMaxPeers bounds the registry so an unbounded stream of
// never-before-seen peer IDs cannot grow memory without limit.
const DefaultMaxPeers = 1000

// PeerInfo is the bookkeeping kept for one observed peer.
type PeerInfo struct {
	PeerID    string
	FirstSeen time.Time
	LastSeen  time.Time
	RSSI      int
	Received  uint64
	Sent      uint64
	Relayed   uint64
}

// Registry is a capacity-bound, least-recently-seen-evicting table of
// PeerInfo, keyed by PeerID. It reuses the container/list LRU pairing
// used elsewhere for cache eviction (internal/mesh.MessageCache,
// internal/fragment.Reassembler), since the registry has no TTL
// requirement of its own, only a capacity bound.
type Registry struct {
	MaxPeers int

	mu       sync.Mutex
	peers    map[string]*PeerInfo
	order    *list.List
	elements map[string]*list.Element
	metrics  *metricsSet
}

// New returns a Registry bounded to maxPeers entries (DefaultMaxPeers if
// maxPeers <= 0). Its Prometheus collectors are created but not
// registered; Register adds them to a prometheus.Registerer.
func New(maxPeers int) *Registry {
	if maxPeers <= 0 {
		maxPeers = DefaultMaxPeers
	}
	return &Registry{
		MaxPeers: maxPeers,
		peers:    make(map[string]*PeerInfo),
		order:    list.New(),
		elements: make(map[string]*list.Element),
		metrics:  newMetricsSet(),
	}
}

func (r *Registry) touch(peerID string) {
	if el, ok := r.elements[peerID]; ok {
		r.order.MoveToBack(el)
		return
	}
	r.elements[peerID] = r.order.PushBack(peerID)
}

func (r *Registry) evictOldestLocked() {
	front := r.order.Front()
	if front == nil {
		return
	}
	oldest := front.Value.(string)
	r.order.Remove(front)
	delete(r.elements, oldest)
	delete(r.peers, oldest)
	r.metrics.forget(oldest)
}

func (r *Registry) getOrCreateLocked(peerID string, now time.Time) *PeerInfo {
	if info, ok := r.peers[peerID]; ok {
		r.touch(peerID)
		return info
	}
	if len(r.peers) >= r.MaxPeers {
		r.evictOldestLocked()
	}
	info := &PeerInfo{PeerID: peerID, FirstSeen: now}
	r.peers[peerID] = info
	r.touch(peerID)
	return info
}

// ObserveReceive records a packet received from peerID at the given
// RSSI (in dBm).
func (r *Registry) ObserveReceive(peerID string, rssi int, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.getOrCreateLocked(peerID, now)
	info.LastSeen = now
	info.RSSI = rssi
	info.Received++
	r.metrics.observe(peerID, info)
	r.metrics.received.WithLabelValues(peerID).Inc()
}

// ObserveSend records a packet sent to peerID.
func (r *Registry) ObserveSend(peerID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.getOrCreateLocked(peerID, now)
	info.LastSeen = now
	info.Sent++
	r.metrics.observe(peerID, info)
	r.metrics.sent.WithLabelValues(peerID).Inc()
}

// ObserveRelay records a packet relayed to peerID.
func (r *Registry) ObserveRelay(peerID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.getOrCreateLocked(peerID, now)
	info.LastSeen = now
	info.Relayed++
	r.metrics.observe(peerID, info)
	r.metrics.relayed.WithLabelValues(peerID).Inc()
}

// Get returns a copy of peerID's PeerInfo, if known.
func (r *Registry) Get(peerID string) (PeerInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.peers[peerID]
	if !ok {
		return PeerInfo{}, false
	}
	return *info, true
}

// Count returns the number of tracked peers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Prune evicts peers whose LastSeen is older than maxAge.
func (r *Registry) Prune(now time.Time, maxAge time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []string
	for id, info := range r.peers {
		if now.Sub(info.LastSeen) > maxAge {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if el, ok := r.elements[id]; ok {
			r.order.Remove(el)
			delete(r.elements, id)
		}
		delete(r.peers, id)
		r.metrics.forget(id)
	}
}
