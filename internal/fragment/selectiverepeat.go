package fragment

import (
	"sync"
	"time"

	"github.com/bitpack/bitpack/internal/payload"
)

// DefaultMaxRetries is the default number of NACK rounds issued for a
// single message before giving up (spec §6 Selective repeat config).
const DefaultMaxRetries = 3

// DefaultRetryInterval is the default minimum spacing between successive
// NACK rounds for the same message (spec §6).
const DefaultRetryInterval = 5 * time.Second

// retryState tracks one in-flight message's NACK history.
type retryState struct {
	nackCount  int
	lastNackAt time.Time
	pending    map[uint16]bool
}

// SelectiveRepeat implements the selective-repeat ARQ strategy layered
// on top of the Reassembler (spec §4.7): it decides when to emit another
// NACK for a message's missing fragments, grouping indices into blocks,
// and declares retry-exhaustion as a distinct outcome from "more NACKs
// later" so the two are never conflated (spec §9 open question).
type SelectiveRepeat struct {
	MaxRetries    int
	RetryInterval time.Duration

	mu     sync.Mutex
	states map[uint32]*retryState
}

// NewSelectiveRepeat returns a SelectiveRepeat with the given limits.
func NewSelectiveRepeat(maxRetries int, retryInterval time.Duration) *SelectiveRepeat {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	return &SelectiveRepeat{
		MaxRetries:    maxRetries,
		RetryInterval: retryInterval,
		states:        make(map[uint32]*retryState),
	}
}

func (s *SelectiveRepeat) stateFor(messageID uint32) *retryState {
	st, ok := s.states[messageID]
	if !ok {
		st = &retryState{pending: make(map[uint16]bool)}
		s.states[messageID] = st
	}
	return st
}

// Outcome distinguishes the three results of GenerateNack.
type Outcome int

const (
	// OutcomeNack means a NACK was generated and should be sent.
	OutcomeNack Outcome = iota
	// OutcomeWait means it is too soon to NACK again, or the buffer is
	// already complete; no action needed.
	OutcomeWait
	// OutcomeRetryExceeded means MaxRetries NACK rounds have been sent
	// with no successful completion; the caller should drop the buffer
	// and emit a terminal event.
	OutcomeRetryExceeded
)

// GenerateNack decides whether to emit another NACK for buf's missing
// fragments as of now. originalMessageID is the value carried in the
// resulting NackPayload (spec §3: original_message_id).
func (s *SelectiveRepeat) GenerateNack(buf *Buffer, originalMessageID uint32, now time.Time) (*payload.NackPayload, Outcome) {
	if buf.complete() {
		return nil, OutcomeWait
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(buf.MessageID)
	if st.nackCount >= s.MaxRetries {
		return nil, OutcomeRetryExceeded
	}
	if !st.lastNackAt.IsZero() && now.Sub(st.lastNackAt) < s.RetryInterval {
		return nil, OutcomeWait
	}

	missing := buf.Missing()
	if len(missing) == 0 {
		return nil, OutcomeWait
	}

	blocks := payload.BuildNackBlocks(missing)
	st.nackCount++
	st.lastNackAt = now
	for _, b := range blocks {
		for n := uint16(0); n < NackBlockSpan; n++ {
			if b.MissingBitmask&(1<<n) != 0 {
				st.pending[b.StartIndex+n] = true
			}
		}
	}

	return &payload.NackPayload{OriginalMessageID: originalMessageID, Blocks: blocks}, OutcomeNack
}

// NackBlockSpan mirrors payload.NackBlockSpan locally to avoid a second
// import alias at every call site above.
const NackBlockSpan = payload.NackBlockSpan

// OnFragmentReceived clears index from messageID's pending-NACK set once
// the fragment arrives.
func (s *SelectiveRepeat) OnFragmentReceived(messageID uint32, index uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[messageID]; ok {
		delete(st.pending, index)
	}
}

// Drop removes all retry bookkeeping for messageID (called on completion
// or retry-exhaustion).
func (s *SelectiveRepeat) Drop(messageID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, messageID)
}
