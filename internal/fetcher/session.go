package fetcher

import (
	"context"
	"log"
	"sync"

	"reservation-wizard-backend/internal/interval"
)

// Session owns the interval set for one resource selection. Each selection
// change replaces the set wholesale; there is no incremental patching and no
// cross-selection cache.
//
// The fetch is the wizard's only suspension point, so the session guards it
// with a sequence token: if a newer selection is made while a fetch is in
// flight, the stale response is discarded on arrival (last-selection-wins).
// There is no hard cancellation of the network call, only no-op-on-arrival.
type Session struct {
	client Client

	mu       sync.Mutex
	seq      uint64
	query    Query
	snapshot []interval.Interval
	loaded   bool
}

// NewSession creates a session with no selection. Snapshot returns a nil set
// until the first Select, which classification reports as unknown.
func NewSession(client Client) *Session {
	return &Session{client: client}
}

// Select switches the session to a new resource selection and fetches its
// reservation set. On fetch failure the snapshot falls back to an empty set
// so the calendar can still render, but Loaded stays false: confirmation is
// blocked until a successful fetch has completed for this selection.
func (s *Session) Select(ctx context.Context, q Query) error {
	s.mu.Lock()
	s.seq++
	token := s.seq
	s.query = q
	s.snapshot = nil
	s.loaded = false
	s.mu.Unlock()

	ivs, err := s.client.Fetch(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.seq {
		// A newer selection superseded this fetch while it was in flight.
		log.Printf("Discarding stale fetch result for %s selection (seq %d, current %d)", q.Kind, token, s.seq)
		return nil
	}
	if err != nil {
		log.Printf("Warning: availability fetch failed for %s selection: %v", q.Kind, err)
		s.snapshot = []interval.Interval{}
		return err
	}
	if ivs == nil {
		ivs = []interval.Interval{}
	}
	s.snapshot = ivs
	s.loaded = true
	return nil
}

// Refresh re-fetches the current selection, used after a server-side
// rejection marked the local set as known-stale.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	q := s.query
	none := q.Kind == ""
	s.mu.Unlock()
	if none {
		return nil
	}
	return s.Select(ctx, q)
}

// Invalidate marks the current snapshot as unverified without discarding it,
// forcing a successful Refresh before the next confirmation.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

// Snapshot returns the current interval set and whether it reflects a
// completed successful fetch for the current selection. A nil set means no
// selection has loaded at all.
func (s *Session) Snapshot() ([]interval.Interval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, s.loaded
}

// Query returns the current selection.
func (s *Session) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}
