package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservation-wizard-backend/config"
	"reservation-wizard-backend/internal/interval"
)

func testConfig(url string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			URL:                   url,
			Timezone:              "Local",
			StatusConfirmedValues: []int{2},
			StatusPendingValues:   []int{1},
			StatusCancelledValues: []int{0},
		},
	}
}

func TestService_Fetch(t *testing.T) {
	var gotRequest apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": []map[string]any{
				{
					"id":        1,
					"itemType":  "venue",
					"itemId":    "7",
					"startTime": "2026-03-02 09:00:00",
					"endTime":   "2026-03-02 11:00:00",
					"status":    2,
				},
				{
					// Missing end time; dropped at normalization.
					"id":        2,
					"itemType":  "venue",
					"itemId":    "7",
					"startTime": "2026-03-02 12:00:00",
					"status":    2,
				},
			},
		})
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	ivs, err := svc.Fetch(context.Background(), Query{Kind: interval.KindVenue, IDs: []string{"7"}})
	require.NoError(t, err)

	assert.Equal(t, "fetchAvailability", gotRequest.Operation)
	assert.Equal(t, "venue", gotRequest.ItemType)
	assert.Equal(t, "7", gotRequest.ItemID)

	require.Len(t, ivs, 1)
	assert.Equal(t, interval.StatusConfirmed, ivs[0].Status)
	assert.Equal(t, "7", ivs[0].ResourceID)
}

func TestService_Fetch_MultipleIDsSentAsArray(t *testing.T) {
	var gotRequest apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": []any{}})
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	_, err = svc.Fetch(context.Background(), Query{Kind: interval.KindVehicle, IDs: []string{"1", "2"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2"}, gotRequest.ItemID)
}

func TestService_Fetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "data": []any{}})
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	_, err = svc.Fetch(context.Background(), Query{Kind: interval.KindVenue, IDs: []string{"7"}})
	assert.Error(t, err)
}

func TestService_Fetch_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	_, err = svc.Fetch(context.Background(), Query{Kind: interval.KindVenue, IDs: []string{"7"}})
	assert.Error(t, err)
}

func TestService_FetchCatalog(t *testing.T) {
	var gotRequest apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": []map[string]any{
				{"id": 7, "itemType": "venue", "name": "Main Hall"},
				{"id": "3.0", "itemType": "equipment", "name": "Projector", "totalStock": 5},
				{"id": 9, "itemType": "boat", "name": "Dropped"},
				{"itemType": "venue", "name": "No ID"},
			},
		})
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	resources, err := svc.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "listResources", gotRequest.Operation)

	require.Len(t, resources, 2)
	assert.Equal(t, "7", resources[0].ID)
	assert.Equal(t, "venue", resources[0].Kind)
	assert.Equal(t, "Main Hall", resources[0].Name)
	assert.Equal(t, "3", resources[1].ID)
	assert.Equal(t, 5, resources[1].TotalStock)
}

func TestService_FetchCatalog_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error", "data": []any{}})
	}))
	defer server.Close()

	svc, err := NewService(testConfig(server.URL))
	require.NoError(t, err)

	_, err = svc.FetchCatalog(context.Background())
	assert.Error(t, err)
}

func TestService_StatusType(t *testing.T) {
	svc, err := NewService(testConfig("http://unused"))
	require.NoError(t, err)

	assert.Equal(t, interval.StatusConfirmed, svc.StatusType(2))
	assert.Equal(t, interval.StatusPending, svc.StatusType(1))
	assert.Equal(t, interval.StatusCancelled, svc.StatusType(0))
	assert.Equal(t, interval.StatusUnknown, svc.StatusType(99))
}
