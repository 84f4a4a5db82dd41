package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/booking"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
)

// wizardSession bundles one client's wizard state machine with the fetch
// session that owns its interval set. Sessions expire after a TTL of
// inactivity; a fresh booking cycle always starts with a new session.
//
// mu serializes handler access: the Wizard is not safe for concurrent use,
// and two requests carrying the same session id must not interleave its
// state transitions.
type wizardSession struct {
	ID    string
	Fetch *fetcher.Session

	mu        sync.Mutex
	Wizard    *booking.Wizard
	Selection availability.Selection
}

// sessionRegistry is a TTL store of live wizard sessions.
type sessionRegistry struct {
	entries *cache.Cache
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		entries: cache.New(ttl, 2*ttl),
	}
}

// create starts a new session around the given fetch client.
func (r *sessionRegistry) create(client fetcher.Client, hours interval.BusinessHours) *wizardSession {
	s := &wizardSession{
		ID:     uuid.NewString(),
		Fetch:  fetcher.NewSession(client),
		Wizard: booking.NewWizard(hours),
	}
	r.entries.SetDefault(s.ID, s)
	return s
}

// get looks a session up and refreshes its TTL.
func (r *sessionRegistry) get(id string) (*wizardSession, bool) {
	entry, ok := r.entries.Get(id)
	if !ok {
		return nil, false
	}
	s := entry.(*wizardSession)
	r.entries.SetDefault(id, s)
	return s, true
}

// drop removes a session.
func (r *sessionRegistry) drop(id string) {
	r.entries.Delete(id)
}
