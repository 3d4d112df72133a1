// Package notify delivers triggered sentiment alerts to external
// destinations. Delivery is best effort: the alert row in the store is the
// durable record, notifications are a convenience on top.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidpulse/vidpulse/internal/store"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	VideoID    string      `json:"video_id"`
	VideoTitle string      `json:"video_title"`
	Alert      store.Alert `json:"alert"`
}

// Notifier delivers notifications to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert notification manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
