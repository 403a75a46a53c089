// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Notices are transient operator-facing messages (the toast line).
	NoticePosted EventType = "notice.posted"

	// Control action lifecycle.
	ActionStarted EventType = "action.started"
	ActionSettled EventType = "action.settled"

	// EmergencyStopped forces the console back to the idle screen.
	EmergencyStopped EventType = "emergency.stopped"
)

// NoticeLevel grades operator notices.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NoticePostedEvent carries one transient message for the notice line.
type NoticePostedEvent struct {
	BaseEvent
	Level   NoticeLevel
	Message string
}

// ActionStartedEvent is emitted when a control action goes in flight.
type ActionStartedEvent struct {
	BaseEvent
	Action      string
	OperationID string
}

// ActionSettledEvent is emitted when a control action reaches a terminal
// outcome, whatever that outcome is.
type ActionSettledEvent struct {
	BaseEvent
	Action      string
	OperationID string
	Outcome     string
	Message     string
}

// EmergencyStoppedEvent is emitted after a successful emergency stop.
type EmergencyStoppedEvent struct {
	BaseEvent
}

// NewNotice builds a NoticePostedEvent stamped now.
func NewNotice(level NoticeLevel, message string) NoticePostedEvent {
	return NoticePostedEvent{
		BaseEvent: BaseEvent{EventType: NoticePosted, EventTime: time.Now()},
		Level:     level,
		Message:   message,
	}
}
