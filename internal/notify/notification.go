// Package notify delivers alert notifications to the user and to
// downstream consumers
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ngmaloney/weather-alert/internal/models"
)

// Color is the accent colour of a notification
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
)

// Priority of a notification. Every weather alert is posted as high.
const PriorityHigh = "high"

// Notification is a single alert ready for delivery
type Notification struct {
	ID       string               `json:"id"`
	Key      string               `json:"key"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Priority string               `json:"priority"`
	Color    Color                `json:"color"`
	Severity models.AlertSeverity `json:"severity"`
	Sender   string               `json:"sender"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	SentAt   time.Time            `json:"sent_at"`
}

// FromAlert builds the notification for an alert. Each call gets a fresh
// ID; Key is stable across runs.
func FromAlert(a models.AlertItem, now time.Time) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Key:      a.NotificationKey(),
		Title:    a.Event,
		Body:     a.Description,
		Priority: PriorityHigh,
		Color:    ColorFor(a.LeadTag()),
		Severity: a.Severity,
		Sender:   a.SenderName,
		Start:    a.StartTime().UTC(),
		End:      a.EndTime().UTC(),
		SentAt:   now.UTC(),
	}
}

// ColorFor maps the lead tag of an alert to a colour
func ColorFor(tag string) Color {
	switch strings.ToLower(tag) {
	case "severe":
		return ColorRed
	case "moderate":
		return ColorYellow
	default:
		return ColorBlue
	}
}

// Notifier delivers a notification
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi sends each notification to every notifier. All notifiers are tried;
// failures are reported as a *DeliveryError.
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &DeliveryError{Delivered: len(m) - len(errs), Errs: errs}
}

// DeliveryError reports the notifiers of a Multi that failed
type DeliveryError struct {
	Delivered int
	Errs      []error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%d of %d notifiers failed: %v", len(e.Errs), e.Delivered+len(e.Errs), errors.Join(e.Errs...))
}

func (e *DeliveryError) Unwrap() []error {
	return e.Errs
}

// Delivered reports whether a notification reached at least one sink given
// the error Notify returned
func Delivered(err error) bool {
	if err == nil {
		return true
	}
	var de *DeliveryError
	return errors.As(err, &de) && de.Delivered > 0
}
