package mesh

import (
	"testing"
	"time"
)

func TestMessageCacheObserveFirstThenSeen(t *testing.T) {
	c := NewMessageCache(0, 0)
	now := time.Now()

	if isNew := c.Observe(1, now); !isNew {
		t.Error("first Observe of a fresh id reported isNew=false")
	}
	if isNew := c.Observe(1, now.Add(time.Second)); isNew {
		t.Error("second Observe of the same id reported isNew=true")
	}
	if !c.HasSeen(1) {
		t.Error("HasSeen(1) = false after Observe")
	}
	if c.HasSeen(2) {
		t.Error("HasSeen(2) = true for an id never observed")
	}
}

func TestMessageCacheCapacityEviction(t *testing.T) {
	c := NewMessageCache(2, time.Hour)
	now := time.Now()
	c.Observe(1, now)
	c.Observe(2, now)
	c.Observe(3, now)

	if c.Count() != 2 {
		t.Errorf("Count() = %d, want 2", c.Count())
	}
	if c.HasSeen(1) {
		t.Error("id 1 should have been evicted as least-recently-used")
	}
	if !c.HasSeen(2) || !c.HasSeen(3) {
		t.Error("ids 2 and 3 should still be present")
	}
}

func TestMessageCacheRecentAccessProtectsFromEviction(t *testing.T) {
	c := NewMessageCache(2, time.Hour)
	now := time.Now()
	c.Observe(1, now)
	c.Observe(2, now)
	// Re-observe 1 so it becomes most-recently-used; 2 should be evicted next.
	c.Observe(1, now.Add(time.Second))
	c.Observe(3, now.Add(2*time.Second))

	if !c.HasSeen(1) {
		t.Error("id 1 was re-touched and should not have been evicted")
	}
	if c.HasSeen(2) {
		t.Error("id 2 should have been evicted as least-recently-used")
	}
}

func TestMessageCacheMarkAndQueryRelayedTo(t *testing.T) {
	c := NewMessageCache(0, 0)
	now := time.Now()
	c.Observe(1, now)

	if c.RelayedTo(1, "peerA") {
		t.Error("RelayedTo should be false before MarkRelayedTo")
	}
	c.MarkRelayedTo(1, "peerA")
	if !c.RelayedTo(1, "peerA") {
		t.Error("RelayedTo should be true after MarkRelayedTo")
	}
	if c.RelayedTo(1, "peerB") {
		t.Error("RelayedTo should remain false for a different peer")
	}
}

func TestMessageCacheMarkRelayedToNoopWithoutEntry(t *testing.T) {
	c := NewMessageCache(0, 0)
	// Should not panic even though id 99 was never Observe()d.
	c.MarkRelayedTo(99, "peerA")
	if c.RelayedTo(99, "peerA") {
		t.Error("RelayedTo should be false for an id with no entry")
	}
}
