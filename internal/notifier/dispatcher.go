package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
)

// Dispatcher sends order notifications on detached goroutines. Callers never wait
// for delivery and never see its outcome; failures are only logged.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	closed   bool
	inFlight sync.WaitGroup
}

// NewDispatcher creates a Dispatcher delivering through notifier.
func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
	}
}

// Dispatch schedules a notification for order and returns immediately.
func (d *Dispatcher) Dispatch(order *domain.Order) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("notification dropped after shutdown", "order_id", order.ID)
		return
	}
	d.inFlight.Add(1)
	d.mu.Unlock()

	notification := NewNotification(order)
	go d.send(order.ID, notification)
}

// Shutdown stops accepting notifications and waits for in-flight sends to finish
// or for ctx to be done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) send(orderID string, notification Notification) {
	defer d.inFlight.Done()
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("notification panicked", "order_id", orderID, "panic", rec)
		}
	}()

	ctx := context.Background()
	if err := d.notifier.Notify(ctx, notification); err != nil {
		d.logger.ErrorContext(ctx, "failed to send notification", "order_id", orderID, "error", err)
		return
	}

	d.logger.InfoContext(ctx, "notification sent", "order_id", orderID)
}
