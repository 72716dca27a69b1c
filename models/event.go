package models

import "time"

// EventType classifies entries in the agent's event feed.
type EventType string

const (
	EventState     EventType = "state"
	EventDecision  EventType = "decision"
	EventPosition  EventType = "position"
	EventSafety    EventType = "safety"
	EventAdapt     EventType = "adapt"
	EventErrorNote EventType = "error"
)

// AgentEvent is one human-readable entry in the bounded event feed.
type AgentEvent struct {
	Time   time.Time `json:"time"`
	Type   EventType `json:"type"`
	Title  string    `json:"title"`
	Detail string    `json:"detail"`
	Cycle  int64     `json:"cycle"`
}
