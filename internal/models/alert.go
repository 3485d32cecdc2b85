package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultSender is used when an event carries no origin
const DefaultSender = "Tomorrow.io"

// AlertSeverity represents the severity level of an alert
type AlertSeverity string

const (
	SeverityExtreme  AlertSeverity = "extreme"
	SeveritySevere   AlertSeverity = "severe"
	SeverityModerate AlertSeverity = "moderate"
	SeverityMinor    AlertSeverity = "minor"
	SeverityUnknown  AlertSeverity = "unknown"
)

// ParseSeverity normalizes an API severity string
func ParseSeverity(s string) AlertSeverity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "extreme":
		return SeverityExtreme
	case "severe":
		return SeveritySevere
	case "moderate":
		return SeverityModerate
	case "minor":
		return SeverityMinor
	default:
		return SeverityUnknown
	}
}

// AlertItem is the presentation form of an event shown to the user and
// handed to the notifier
type AlertItem struct {
	SenderName  string
	Event       string // event title, e.g. "Flood Warning"
	Insight     string // hazard category reported by the API
	Start       int64  // epoch millis
	End         int64  // epoch millis
	Description string
	Instruction string
	Tags        []string
	Severity    AlertSeverity
	Distance    *float64 // km, when the API reports it
}

// AlertFromEvent converts an API event into an AlertItem. Unparsable
// timestamps fall back to now.
func AlertFromEvent(e Event, now time.Time) AlertItem {
	sender := e.EventValues.Origin
	if strings.TrimSpace(sender) == "" {
		sender = DefaultSender
	}

	var tags []string
	for _, t := range []string{e.Severity, e.Urgency, e.Certainty} {
		t = strings.TrimSpace(t)
		if t == "" || strings.EqualFold(t, "unknown") {
			continue
		}
		tags = append(tags, t)
	}

	return AlertItem{
		SenderName:  sender,
		Event:       e.EventValues.Title,
		Insight:     e.Insight,
		Start:       EpochMillis(e.StartTime, now),
		End:         EpochMillis(e.EndTime, now),
		Description: e.EventValues.Description,
		Instruction: e.EventValues.Instruction,
		Tags:        tags,
		Severity:    ParseSeverity(e.Severity),
		Distance:    e.EventValues.Distance,
	}
}

// EpochMillis parses an RFC 3339 timestamp into epoch milliseconds
func EpochMillis(ts string, fallback time.Time) int64 {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return fallback.UnixMilli()
	}
	return t.UnixMilli()
}

// HistoryKey identifies an alert across checker runs: title, start, end
func (a AlertItem) HistoryKey() string {
	return fmt.Sprintf("%s_%d_%d", a.Event, a.Start, a.End)
}

// NotificationKey identifies an alert for the notification cooldown
func (a AlertItem) NotificationKey() string {
	return a.Event + "_notification"
}

// StartTime returns Start as a time.Time
func (a AlertItem) StartTime() time.Time {
	return time.UnixMilli(a.Start)
}

// EndTime returns End as a time.Time
func (a AlertItem) EndTime() time.Time {
	return time.UnixMilli(a.End)
}

// IsActive checks if an alert is currently active
func (a AlertItem) IsActive(now time.Time) bool {
	return !now.Before(a.StartTime()) && now.Before(a.EndTime())
}

// LeadTag is the first tag, which drives notification colour
func (a AlertItem) LeadTag() string {
	if len(a.Tags) == 0 {
		return ""
	}
	return a.Tags[0]
}

// AlertKey is the batch deduplication identity of an event
type AlertKey struct {
	Title     string
	StartTime string
	EndTime   string
	Severity  string
	Geometry  string
}

// KeyOf builds the deduplication key of an event
func KeyOf(e Event) AlertKey {
	return AlertKey{
		Title:     e.EventValues.Title,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Severity:  e.Severity,
		Geometry:  e.EventValues.Location.Key(),
	}
}
