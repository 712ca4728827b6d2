package draft

import (
	"context"
	"sync"

	"meal-planner/internal/planner"
)

// Token identifies one asynchronous fetch. Only the most recently issued token of
// a user and phase is fresh.
type Token struct {
	UserID string
	Phase  planner.Phase
	Seq    uint64
}

type seqKey struct {
	userID string
	phase  planner.Phase
}

// Sequencer hands out freshness tokens. Issuing a token cancels the context of the
// previous in-flight request for the same user and phase.
type Sequencer struct {
	mu     sync.Mutex
	seq    map[seqKey]uint64
	cancel map[seqKey]context.CancelFunc
}

// NewSequencer creates a Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{
		seq:    make(map[seqKey]uint64),
		cancel: make(map[seqKey]context.CancelFunc),
	}
}

// Issue supersedes any in-flight request for the phase and returns a context bound
// to the new token.
func (s *Sequencer) Issue(parent context.Context, userID string, phase planner.Phase) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	k := seqKey{userID, phase}
	if prev := s.cancel[k]; prev != nil {
		prev()
	}
	s.seq[k]++
	s.cancel[k] = cancel
	return ctx, Token{UserID: userID, Phase: phase, Seq: s.seq[k]}
}

// Invalidate makes every outstanding token of the phase stale, for edits that must
// win over a slower fetch.
func (s *Sequencer) Invalidate(userID string, phase planner.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := seqKey{userID, phase}
	if prev := s.cancel[k]; prev != nil {
		prev()
		delete(s.cancel, k)
	}
	s.seq[k]++
}

// IsFresh reports whether t is still the latest token for its phase.
func (s *Sequencer) IsFresh(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq[seqKey{t.UserID, t.Phase}] == t.Seq
}

// Release frees the context of t if it is still the latest.
func (s *Sequencer) Release(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := seqKey{t.UserID, t.Phase}
	if s.seq[k] == t.Seq {
		if c := s.cancel[k]; c != nil {
			c()
		}
		delete(s.cancel, k)
	}
}
