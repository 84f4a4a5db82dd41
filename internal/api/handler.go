package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	fetch      fetcher.Client
	classifier *availability.Classifier
	sessions   *sessionRegistry
	webpush    *webpush.Options
	loc        *time.Location
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, fetch fetcher.Client, classifier *availability.Classifier, sessionTTL time.Duration, webpushOptions *webpush.Options, loc *time.Location) *Handler {
	return &Handler{
		store:      s,
		fetch:      fetch,
		classifier: classifier,
		sessions:   newSessionRegistry(sessionTTL),
		webpush:    webpushOptions,
		loc:        loc,
	}
}
