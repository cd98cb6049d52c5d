package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"remnant-inventory-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender implementation using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends push alerts to subscribers of a machine whenever one of
// its remnants is exhausted.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size),
		db:      db,
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

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case remnantID := <-wp.jobs:
			log.Printf("Worker %d processing exhausted remnant %s", id, remnantID)
			wp.notifyExhausted(ctx, remnantID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an exhausted-remnant alert. Non-blocking: if the queue is
// full the alert is dropped rather than stalling the mutation path.
func (wp *WorkerPool) Dispatch(remnantID string) {
	select {
	case wp.jobs <- remnantID:
	default:
		log.Printf("notification queue full, dropping alert for remnant %s", remnantID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// notifyExhausted fetches the remnant's machine subscribers and sends each
// an alert.
func (wp *WorkerPool) notifyExhausted(ctx context.Context, remnantID string) {
	var remnant model.Remnant
	err := wp.db.WithContext(ctx).Preload("Machine").First(&remnant, "id = ?", remnantID).Error
	if err != nil {
		log.Printf("Error fetching remnant %s: %v", remnantID, err)
		return
	}

	var subscriptions []model.PushSubscription
	err = wp.db.WithContext(ctx).
		Joins("JOIN subscription_machine_mapping smm ON smm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("smm.machine_id = ?", remnant.MachineID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for machine %s: %v", remnant.MachineID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for remnant %s", len(subscriptions), remnantID)

	machineLabel := remnant.MachineID
	if remnant.Machine.Name != "" {
		machineLabel = remnant.Machine.Name
	}

	message := fmt.Sprintf("Remnant %.0fx%.0fx%.0f on %s is exhausted",
		remnant.Length, remnant.Width, remnant.Thickness, machineLabel)
	for _, sub := range subscriptions {
		wp.sendNotification(sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(sub model.PushSubscription, payload []byte) {
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

	// A gone subscription is pruned so we stop pushing to it.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		log.Printf("Subscription %s is gone, deleting", sub.Endpoint)
		if err := wp.db.Delete(&model.PushSubscription{}, "endpoint = ?", sub.Endpoint).Error; err != nil {
			log.Printf("Error deleting stale subscription %s: %v", sub.Endpoint, err)
		}
	}
}
