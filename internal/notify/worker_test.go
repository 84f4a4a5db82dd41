package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reservation-wizard-backend/internal/model"
	"reservation-wizard-backend/internal/store"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Resource{}, &model.WatchSubscription{}))
	return db
}

func seedWatcher(t *testing.T, db *gorm.DB, endpoint string) {
	t.Helper()
	resource := model.Resource{ID: "hall", Kind: "venue", Name: "Main Hall"}
	require.NoError(t, db.Create(&resource).Error)
	sub := model.WatchSubscription{
		Endpoint:  endpoint,
		P256DH:    "test_p256dh",
		Auth:      "test_auth",
		Resources: []*model.Resource{&resource},
	}
	require.NoError(t, db.Create(&sub).Error)
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, store.NewGormStore(newTestDB(t)), &webpush.Options{})

	wp.Dispatch(Job{ResourceID: "hall"})

	select {
	case job := <-wp.jobs:
		assert.Equal(t, "hall", job.ResourceID)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsToWatchers(t *testing.T) {
	db := newTestDB(t)
	seedWatcher(t, db, "https://example.com/push")

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "Main Hall has availability again", string(payload))
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Job{ResourceID: "hall"})
	wg.Wait()
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	seedWatcher(t, db, "https://example.com/expired")

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Job{ResourceID: "hall"})

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.WatchSubscription{}).Count(&count)
		return count == 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWorkerPool_NoWatchersNoSend(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.Resource{ID: "hall", Kind: "venue", Name: "Main Hall"}).Error)

	wp := NewWorkerPool(1, store.NewGormStore(db), &webpush.Options{})
	sent := false
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			sent = true
			return &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(bytes.NewBufferString(""))}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(Job{ResourceID: "hall"})
	time.Sleep(100 * time.Millisecond)
	assert.False(t, sent)
}
