package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reservation-wizard-backend/config"
	"reservation-wizard-backend/internal/api"
	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/model"
	"reservation-wizard-backend/internal/store"
)

// TestWizardLifecycle walks a venue booking through the whole flow: create a
// session, pick a window, validate against the fetched reservation set,
// confirm, and report the outcome. The mock upstream holds one confirmed
// reservation so both the clean and the conflicting window are exercised.
func TestWizardLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 1. In-memory database with migrations and a seeded catalog.
	testDB, err := gorm.Open(sqlite.Open("file:wizard_lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(
		&model.Resource{},
		&model.ReservationRecord{},
		&model.BookingAttempt{},
		&model.WatchSubscription{},
	))
	require.NoError(t, testDB.Create(&model.Resource{ID: "hall", Kind: "venue", Name: "Main Hall"}).Error)

	// 2. Mock upstream: one confirmed reservation on the hall, 10:00-12:00.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := fetcher.ApiResponse{
			Status: "success",
			Data: []interval.RawRecord{
				{
					ID:         "r1",
					ItemType:   "venue",
					ItemID:     "hall",
					StartTime:  "2026-09-01 10:00:00",
					EndTime:    "2026-09-01 12:00:00",
					StatusCode: 2,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	// 3. Wire the service the way main does.
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			URL:                   server.URL,
			Timezone:              "UTC",
			Timeout:               5 * time.Second,
			StatusConfirmedValues: []int{2},
			StatusPendingValues:   []int{1},
			StatusCancelledValues: []int{0},
		},
		Hours: config.HoursConfig{Open: 8, Close: 17},
	}
	cfg.Server.RateLimitPerSec = 1000

	svc, err := fetcher.NewService(cfg)
	require.NoError(t, err)

	gormStore := store.NewGormStore(testDB)
	classifier := availability.NewClassifier(interval.BusinessHours{Open: cfg.Hours.Open, Close: cfg.Hours.Close})
	handler := api.NewHandler(gormStore, svc, classifier, 30*time.Minute, &webpush.Options{}, svc.Location())
	router := api.NewRouter(handler, &cfg.Server)

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	var sessionID string
	t.Run("Create Session", func(t *testing.T) {
		w := do(http.MethodPost, "/api/wizard", gin.H{"kind": "venue", "ids": []string{"hall"}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			SessionID string `json:"session_id"`
			State     string `json:"state"`
			Loaded    bool   `json:"loaded"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "idle", resp.State)
		assert.True(t, resp.Loaded, "reservation set should be fetched on session creation")
		require.NotEmpty(t, resp.SessionID)
		sessionID = resp.SessionID
	})

	t.Run("Conflicting Window Is Rejected", func(t *testing.T) {
		w := do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/start", sessionID), gin.H{"time": "2026-09-01 10:30"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/end", sessionID), gin.H{"time": "2026-09-01 11:30"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/validate", sessionID), nil)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var resp struct {
			Report struct {
				Conflicts []struct {
					ID string `json:"id"`
				} `json:"conflicts"`
			} `json:"report"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Report.Conflicts, 1)
		assert.Equal(t, "r1", resp.Report.Conflicts[0].ID)

		// The flow is back at the beginning after a conflict.
		w = do(http.MethodGet, fmt.Sprintf("/api/wizard/%s", sessionID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var state struct {
			State string `json:"state"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
		assert.Equal(t, "idle", state.State)
	})

	var attemptID string
	t.Run("Clean Window Confirms", func(t *testing.T) {
		w := do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/start", sessionID), gin.H{"time": "2026-09-01 13:00"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/end", sessionID), gin.H{"time": "2026-09-01 14:00"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/validate", sessionID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/confirm", sessionID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			AttemptID string `json:"attempt_id"`
			Start     string `json:"start"`
			End       string `json:"end"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2026-09-01 13:00", resp.Start)
		assert.Equal(t, "2026-09-01 14:00", resp.End)
		require.NotEmpty(t, resp.AttemptID)
		attemptID = resp.AttemptID

		var attempt model.BookingAttempt
		require.NoError(t, testDB.First(&attempt, "id = ?", attemptID).Error)
		assert.Equal(t, model.AttemptSubmitted, attempt.Outcome)
		assert.Equal(t, "hall", attempt.ResourceIDs)
	})

	t.Run("Rejection Resets And Refreshes", func(t *testing.T) {
		w := do(http.MethodPost, fmt.Sprintf("/api/wizard/%s/outcome", sessionID),
			gin.H{"attempt_id": attemptID, "outcome": "rejected"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			State  string `json:"state"`
			Loaded bool   `json:"loaded"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "idle", resp.State)
		assert.True(t, resp.Loaded, "a successful re-fetch should re-verify the set")

		var attempt model.BookingAttempt
		require.NoError(t, testDB.First(&attempt, "id = ?", attemptID).Error)
		assert.Equal(t, model.AttemptRejected, attempt.Outcome)
	})

	t.Run("Cancel Session", func(t *testing.T) {
		w := do(http.MethodDelete, fmt.Sprintf("/api/wizard/%s", sessionID), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = do(http.MethodGet, fmt.Sprintf("/api/wizard/%s", sessionID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestAvailabilityGrid verifies the day grid classifies hours from the
// fetched set: hours outside the business window, a reserved slot, and open
// slots around it.
func TestAvailabilityGrid(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:availability_grid?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(&model.Resource{}))
	require.NoError(t, testDB.Create(&model.Resource{ID: "hall", Kind: "venue", Name: "Main Hall"}).Error)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := fetcher.ApiResponse{
			Status: "success",
			Data: []interval.RawRecord{
				{ID: "r1", ItemType: "venue", ItemID: "hall", StartTime: "2026-09-01 10:00", EndTime: "2026-09-01 12:00", StatusCode: 2},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			URL:                   server.URL,
			Timezone:              "UTC",
			Timeout:               5 * time.Second,
			StatusConfirmedValues: []int{2},
		},
		Hours: config.HoursConfig{Open: 8, Close: 17},
	}
	cfg.Server.RateLimitPerSec = 1000

	svc, err := fetcher.NewService(cfg)
	require.NoError(t, err)

	classifier := availability.NewClassifier(interval.BusinessHours{Open: 8, Close: 17})
	handler := api.NewHandler(store.NewGormStore(testDB), svc, classifier, 30*time.Minute, &webpush.Options{}, svc.Location())
	router := api.NewRouter(handler, &cfg.Server)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/day?kind=venue&ids=hall&anchor=2026-09-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Mode     string `json:"mode"`
		Verified bool   `json:"verified"`
		Hours    []struct {
			Hour   int    `json:"hour"`
			Status string `json:"status"`
		} `json:"hours"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "day", resp.Mode)
	assert.True(t, resp.Verified)
	require.Len(t, resp.Hours, 24)

	byHour := make(map[int]string, len(resp.Hours))
	for _, cell := range resp.Hours {
		byHour[cell.Hour] = cell.Status
	}
	assert.Equal(t, "outside", byHour[7])
	assert.Equal(t, "available", byHour[9])
	assert.Equal(t, "reserved", byHour[10])
	assert.Equal(t, "reserved", byHour[11])
	assert.Equal(t, "available", byHour[12])
	assert.Equal(t, "outside", byHour[17])
}

// TestAvailabilityGrid_UpstreamDown: a failed fetch degrades to the last
// persisted snapshot, marked unverified, rather than an error page. With no
// snapshot either, the grid renders empty.
func TestAvailabilityGrid_UpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:availability_down?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, testDB.AutoMigrate(&model.Resource{}, &model.ReservationRecord{}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Config{
		Upstream: config.UpstreamConfig{URL: server.URL, Timezone: "UTC", Timeout: 5 * time.Second},
		Hours:    config.HoursConfig{Open: 8, Close: 17},
	}
	cfg.Server.RateLimitPerSec = 1000

	svc, err := fetcher.NewService(cfg)
	require.NoError(t, err)

	gormStore := store.NewGormStore(testDB)
	loc := svc.Location()
	require.NoError(t, gormStore.ReplaceSnapshot(context.Background(), []string{"hall"}, []interval.Interval{{
		ID:         "r1",
		Kind:       interval.KindVenue,
		ResourceID: "hall",
		Status:     interval.StatusConfirmed,
		Start:      time.Date(2026, 9, 1, 10, 0, 0, 0, loc),
		End:        time.Date(2026, 9, 1, 12, 0, 0, 0, loc),
	}}, time.Now().UTC()))

	classifier := availability.NewClassifier(interval.DefaultBusinessHours)
	handler := api.NewHandler(gormStore, svc, classifier, 30*time.Minute, &webpush.Options{}, loc)
	router := api.NewRouter(handler, &cfg.Server)

	req := httptest.NewRequest(http.MethodGet, "/api/availability/day?kind=venue&ids=hall&anchor=2026-09-01", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Verified bool `json:"verified"`
		Hours    []struct {
			Hour   int    `json:"hour"`
			Status string `json:"status"`
		} `json:"hours"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Verified)
	require.Len(t, resp.Hours, 24)

	byHour := make(map[int]string, len(resp.Hours))
	for _, cell := range resp.Hours {
		byHour[cell.Hour] = cell.Status
	}
	assert.Equal(t, "reserved", byHour[10], "persisted snapshot should still mark reserved hours")
	assert.Equal(t, "reserved", byHour[11])
	assert.Equal(t, "available", byHour[9])

	// A resource with no snapshot renders an all-available month.
	req = httptest.NewRequest(http.MethodGet, "/api/availability/month?kind=venue&ids=annex&anchor=2026-09-01", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var monthResp struct {
		Verified bool `json:"verified"`
		Days     []struct {
			Status string `json:"status"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monthResp))
	assert.False(t, monthResp.Verified)
	require.NotEmpty(t, monthResp.Days)
	for _, day := range monthResp.Days {
		assert.Equal(t, "available", day.Status)
	}
}
