// Package notify pushes "availability opened up" messages to browsers
// watching a resource. Jobs are produced by the background refresher whenever
// a watched resource's day goes from blocked to open.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"reservation-wizard-backend/internal/model"
	"reservation-wizard-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job names the resource whose availability opened up.
type Job struct {
	ResourceID string
}

// WorkerPool manages a pool of workers for sending watch notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notify worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Notify worker %d processing resource %s", id, job.ResourceID)
			wp.notifyWatchers(ctx, job.ResourceID)
		case <-ctx.Done():
			log.Printf("Notify worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(job Job) {
	wp.jobs <- job
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// notifyWatchers fetches the subscriptions watching a resource and pushes to
// each of them.
func (wp *WorkerPool) notifyWatchers(ctx context.Context, resourceID string) {
	subs, err := wp.store.WatchersForResource(ctx, resourceID)
	if err != nil {
		log.Printf("Error fetching watchers for resource %s: %v", resourceID, err)
		return
	}
	if len(subs) == 0 {
		return
	}

	label := resourceID
	if resource, err := wp.store.GetResource(ctx, resourceID); err != nil {
		log.Printf("Error fetching resource %s: %v", resourceID, err)
	} else if resource.Name != "" {
		label = resource.Name
	}

	log.Printf("Sending %d watch notifications for resource %s", len(subs), resourceID)
	message := fmt.Sprintf("%s has availability again", label)
	for _, sub := range subs {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification pushes a single message and prunes expired subscriptions.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.WatchSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
