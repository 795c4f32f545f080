package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"cabin-network-backend/internal/inventory"
	"cabin-network-backend/internal/metrics"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert is the push payload for a workstation that dropped offline.
type Alert struct {
	Title string     `json:"title"`
	Body  string     `json:"body"`
	Zone  model.Zone `json:"zone"`
	Path  string     `json:"path"`
}

// WorkerPool sends offline alerts for status transitions.
type WorkerPool struct {
	size    int
	jobs    chan inventory.Transition
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool. m may be nil.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, log *zap.Logger, m *metrics.Metrics) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan inventory.Transition, size*16),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     log,
		metrics: m,
	}
}

// SetSender replaces the push transport. Call before Start.
func (wp *WorkerPool) SetSender(s NotificationSender) {
	wp.sender = s
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case t := <-wp.jobs:
			wp.sendAlerts(ctx, t)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a transition. It never blocks; when the queue is full the
// alert is dropped and logged.
func (wp *WorkerPool) Dispatch(t inventory.Transition) bool {
	select {
	case wp.jobs <- t:
		return true
	default:
		wp.log.Warn("notification queue full, dropping alert", zap.String("path", t.Path))
		wp.record("dropped")
		return false
	}
}

// Notify queues an alert for every workstation that went from connected to
// offline between prev and next. It matches session.WatchFunc.
func (wp *WorkerPool) Notify(prev, next model.Snapshot) {
	for _, t := range inventory.Transitions(prev, next) {
		if t.From == model.StatusConnected && t.To == model.StatusOffline {
			wp.Dispatch(t)
		}
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan inventory.Transition {
	return wp.jobs
}

func (wp *WorkerPool) sendAlerts(ctx context.Context, t inventory.Transition) {
	subscriptions, err := wp.store.ListSubscriptions(ctx, t.Zone)
	if err != nil {
		wp.log.Error("failed to load subscriptions", zap.String("zone", string(t.Zone)), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewAlert(t))
	if err != nil {
		wp.log.Error("failed to encode alert", zap.Error(err))
		return
	}

	wp.log.Info("sending offline alerts", zap.String("path", t.Path), zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// NewAlert describes t for a human reader.
func NewAlert(t inventory.Transition) Alert {
	return Alert{
		Title: "Workstation offline",
		Body:  t.TableName + " " + t.PCID + " in cabin " + t.CabinNumber + " (" + t.Zone.Side() + ") went offline",
		Zone:  t.Zone,
		Path:  t.Path,
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		wp.record("error")
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are removed.
	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		wp.record("expired")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return
	}
	wp.record("sent")
}

func (wp *WorkerPool) record(result string) {
	if wp.metrics != nil {
		wp.metrics.RecordNotification(result)
	}
}
