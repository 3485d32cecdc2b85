package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier
func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.log.WithFields(logrus.Fields{
		"key":      n.Key,
		"severity": n.Severity,
		"color":    n.Color,
		"sender":   n.Sender,
	}).Warn(n.Title)
	return nil
}
