package peerregistry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestObserveReceiveCreatesAndUpdatesPeer(t *testing.T) {
	r := New(0)
	now := time.Now()
	r.ObserveReceive("peerA", -50, now)

	info, ok := r.Get("peerA")
	if !ok {
		t.Fatal("Get(peerA) = false after ObserveReceive")
	}
	if info.Received != 1 {
		t.Errorf("Received = %d, want 1", info.Received)
	}
	if info.RSSI != -50 {
		t.Errorf("RSSI = %d, want -50", info.RSSI)
	}
	if info.FirstSeen != now {
		t.Errorf("FirstSeen = %v, want %v", info.FirstSeen, now)
	}

	later := now.Add(time.Minute)
	r.ObserveReceive("peerA", -40, later)
	info, _ = r.Get("peerA")
	if info.Received != 2 {
		t.Errorf("Received = %d, want 2", info.Received)
	}
	if info.RSSI != -40 {
		t.Errorf("RSSI = %d, want -40", info.RSSI)
	}
	if info.FirstSeen != now {
		t.Error("FirstSeen should not change on subsequent observations")
	}
	if info.LastSeen != later {
		t.Errorf("LastSeen = %v, want %v", info.LastSeen, later)
	}
}

func TestObserveSendAndRelayCounters(t *testing.T) {
	r := New(0)
	now := time.Now()
	r.ObserveSend("peerB", now)
	r.ObserveRelay("peerB", now)
	r.ObserveRelay("peerB", now)

	info, ok := r.Get("peerB")
	if !ok {
		t.Fatal("Get(peerB) = false")
	}
	if info.Sent != 1 {
		t.Errorf("Sent = %d, want 1", info.Sent)
	}
	if info.Relayed != 2 {
		t.Errorf("Relayed = %d, want 2", info.Relayed)
	}
}

func TestGetUnknownPeer(t *testing.T) {
	r := New(0)
	if _, ok := r.Get("ghost"); ok {
		t.Error("Get on an unobserved peer should report false")
	}
}

func TestCapacityEvictsLeastRecentlySeen(t *testing.T) {
	r := New(2)
	now := time.Now()
	r.ObserveReceive("peerA", -50, now)
	r.ObserveReceive("peerB", -50, now.Add(time.Second))
	r.ObserveReceive("peerC", -50, now.Add(2*time.Second))

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if _, ok := r.Get("peerA"); ok {
		t.Error("peerA should have been evicted as least-recently-seen")
	}
	if _, ok := r.Get("peerB"); !ok {
		t.Error("peerB should still be tracked")
	}
	if _, ok := r.Get("peerC"); !ok {
		t.Error("peerC should still be tracked")
	}
}

func TestPruneRemovesStalePeers(t *testing.T) {
	r := New(0)
	now := time.Now()
	r.ObserveReceive("peerA", -50, now)
	r.ObserveReceive("peerB", -50, now)

	r.Prune(now.Add(time.Hour), 10*time.Minute)
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after pruning both peers", r.Count())
	}
}

func TestPruneKeepsFreshPeers(t *testing.T) {
	r := New(0)
	now := time.Now()
	r.ObserveReceive("peerA", -50, now)

	r.Prune(now.Add(time.Minute), time.Hour)
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (peer still within maxAge)", r.Count())
	}
}

func TestRegisterExposesCollectors(t *testing.T) {
	r := New(0)
	reg := prometheus.NewRegistry()
	if err := r.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.ObserveReceive("peerA", -60, time.Now())

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}

	var foundRSSI, foundReceived bool
	for _, mf := range families {
		switch mf.GetName() {
		case "bitpack_peer_rssi_dbm":
			foundRSSI = true
		case "bitpack_peer_packets_received_total":
			foundReceived = true
		}
	}
	if !foundRSSI {
		t.Error("bitpack_peer_rssi_dbm not found among gathered metrics")
	}
	if !foundReceived {
		t.Error("bitpack_peer_packets_received_total not found among gathered metrics")
	}
}
