// Package fetcher talks to the upstream reservation API. It owns the HTTP
// plumbing, the status-code classification configured per deployment, and the
// sequence-guarded session that keeps classification honest across
// selection changes.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reservation-wizard-backend/config"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/model"
)

// Query identifies the resource selection to fetch reservations for.
type Query struct {
	Kind interval.ResourceKind
	IDs  []string
}

// Client fetches the authoritative reservation list for a selection.
type Client interface {
	Fetch(ctx context.Context, q Query) ([]interval.Interval, error)
}

// Service is the HTTP implementation of Client.
type Service struct {
	cfg    *config.Config
	client *http.Client
	loc    *time.Location
}

// NewService creates a fetcher from configuration, resolving the proxy and
// timezone up front.
func NewService(cfg *config.Config) (*Service, error) {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.Upstream.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.Upstream.HTTPProxy)
		if err != nil {
			log.Printf("Warning: invalid proxy URL %q: %v. Fetcher will not use a proxy.", cfg.Upstream.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	loc, err := time.LoadLocation(cfg.Upstream.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Upstream.Timezone, err)
	}

	return &Service{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Upstream.Timeout,
		},
		loc: loc,
	}, nil
}

// Location returns the local wall-clock location all intervals are parsed in.
func (s *Service) Location() *time.Location { return s.loc }

// StatusType maps a raw reservation status code to its lifecycle class using
// the configured value lists.
func (s *Service) StatusType(code int) interval.StatusType {
	for _, v := range s.cfg.Upstream.StatusConfirmedValues {
		if code == v {
			return interval.StatusConfirmed
		}
	}
	for _, v := range s.cfg.Upstream.StatusPendingValues {
		if code == v {
			return interval.StatusPending
		}
	}
	for _, v := range s.cfg.Upstream.StatusCancelledValues {
		if code == v {
			return interval.StatusCancelled
		}
	}
	return interval.StatusUnknown
}

// Fetch retrieves and normalizes the reservation set for a selection.
// Invalid records are dropped during normalization; a non-success envelope is
// an error to the caller but carries an empty, usable set semantics upstream.
func (s *Service) Fetch(ctx context.Context, q Query) ([]interval.Interval, error) {
	resp, err := s.fetchRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	return interval.NormalizeAll(resp.Data, s.loc, s.StatusType), nil
}

// FetchCatalog retrieves the bookable resource catalog from the upstream.
// Records with no usable id or an unknown resource kind are skipped.
func (s *Service) FetchCatalog(ctx context.Context) ([]model.Resource, error) {
	raw, err := s.post(ctx, apiRequest{Operation: "listResources"})
	if err != nil {
		return nil, err
	}

	var catResp CatalogResponse
	if err := json.Unmarshal(raw, &catResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog response: %w", err)
	}
	if catResp.Status != statusSuccess {
		return nil, fmt.Errorf("API returned non-success status: %q", catResp.Status)
	}

	resources := make([]model.Resource, 0, len(catResp.Data))
	for _, rec := range catResp.Data {
		kind := interval.ResourceKind(strings.ToLower(strings.TrimSpace(rec.ItemType)))
		switch kind {
		case interval.KindVenue, interval.KindVehicle, interval.KindEquipment:
		default:
			continue
		}
		id := rec.ID.Canonical()
		if id == "" {
			continue
		}
		resources = append(resources, model.Resource{
			ID:         id,
			Kind:       string(kind),
			Name:       rec.Name,
			TotalStock: rec.TotalStock,
		})
	}
	return resources, nil
}

func (s *Service) fetchRaw(ctx context.Context, q Query) (*ApiResponse, error) {
	var itemID any
	if len(q.IDs) == 1 {
		itemID = q.IDs[0]
	} else {
		itemID = q.IDs
	}

	raw, err := s.post(ctx, apiRequest{
		Operation: "fetchAvailability",
		ItemType:  string(q.Kind),
		ItemID:    itemID,
	})
	if err != nil {
		return nil, err
	}

	var apiResp ApiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}

	if apiResp.Status != statusSuccess {
		return nil, fmt.Errorf("API returned non-success status: %q", apiResp.Status)
	}

	return &apiResp, nil
}

// post sends one upstream request and returns the raw response body.
func (s *Service) post(ctx context.Context, payload apiRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Upstream.URL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Upstream.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return raw, nil
}
