package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionCreated   EventType = "session_created"
	EventDecisionScored   EventType = "decision_scored"
	EventSessionCompleted EventType = "session_completed"
	EventSessionFailed    EventType = "session_failed"
)

// SessionEvent describes a lifecycle transition of one session.
type SessionEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	ScenarioID string    `json:"scenario_id"`
	Step       int       `json:"step,omitempty"`
	Score      int       `json:"score,omitempty"`
	FinalScore int       `json:"final_score,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. All hooks are
// optional and must not block; they run synchronously on the mutating path.
type LifecycleHooks struct {
	OnSessionCreated   func(context.Context, *SessionEvent)
	OnDecisionScored   func(context.Context, *SessionEvent)
	OnSessionCompleted func(context.Context, *SessionEvent)
	OnSessionFailed    func(context.Context, *SessionEvent)
}
