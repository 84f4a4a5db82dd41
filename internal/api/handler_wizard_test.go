package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/model"
	"reservation-wizard-backend/internal/store"
)

// stubFetchClient serves a canned reservation set.
type stubFetchClient struct {
	ivs []interval.Interval
}

func (c *stubFetchClient) Fetch(ctx context.Context, q fetcher.Query) ([]interval.Interval, error) {
	return c.ivs, nil
}

func setupWizardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Resource{}, &model.BookingAttempt{}))

	classifier := availability.NewClassifier(interval.DefaultBusinessHours)
	handler := NewHandler(store.NewGormStore(db), &stubFetchClient{ivs: []interval.Interval{}}, classifier,
		time.Minute, &webpush.Options{}, time.UTC)

	r := gin.New()
	r.POST("/api/wizard", handler.CreateWizard)
	r.GET("/api/wizard/:id", handler.GetWizard)
	r.POST("/api/wizard/:id/start", handler.PickStart)
	r.POST("/api/wizard/:id/end", handler.PickEnd)
	r.POST("/api/wizard/:id/validate", handler.Validate)
	r.POST("/api/wizard/:id/confirm", handler.Confirm)
	return r
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(gin.H{"kind": "venue", "ids": []string{"hall"}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/wizard", bytes.NewReader(body))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

// Concurrent requests against one session must serialize on the session
// lock: every pick lands or is rejected as a whole, never a torn state.
func TestWizard_ConcurrentSessionAccess(t *testing.T) {
	router := setupWizardRouter(t)
	sessionID := createSession(t, router)

	var wg sync.WaitGroup
	codes := make(chan int, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			body, _ := json.Marshal(gin.H{"time": "2026-09-01 09:00"})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/wizard/"+sessionID+"/start", bytes.NewReader(body))
			router.ServeHTTP(w, req)
			codes <- w.Code
		}()
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/wizard/"+sessionID, nil)
			router.ServeHTTP(w, req)
			codes <- w.Code
		}()
	}
	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	// The session is still coherent: the flow completes normally.
	do := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/wizard/"+sessionID+path, &buf)
		router.ServeHTTP(w, req)
		return w
	}

	w := do("/end", gin.H{"time": "2026-09-01 10:00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do("/validate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do("/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
