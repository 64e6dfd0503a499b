// internal/events/types.go
package events

import (
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	CandidateAdmitted EventType = "feed.candidate_admitted"
	FeedStateChanged  EventType = "feed.state_changed"
	SwapSubmitted     EventType = "swap.submitted"
	SwapFailed        EventType = "swap.failed"
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

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// CandidateAdmittedEvent is emitted when a token passes the filter and enters the buffer.
type CandidateAdmittedEvent struct {
	BaseEvent
	Address   string
	MarketCap float64
	Holders   int64
	Evicted   bool
}

// FeedStateChangedEvent is emitted on every listener state transition.
type FeedStateChangedEvent struct {
	BaseEvent
	From string
	To   string
}

// SwapSubmittedEvent is emitted after a signed swap was handed to the submit endpoint.
type SwapSubmittedEvent struct {
	BaseEvent
	TradeID     string
	InputToken  string
	OutputToken string
	AmountSol   float64
	ProfitSol   float64
	Accepted    bool // submit endpoint returned a result
}

// SwapFailedEvent is emitted when a swap stops before submission.
type SwapFailedEvent struct {
	BaseEvent
	InputToken  string
	OutputToken string
	Stage       string // "route" or "sign"
	Error       error
}
