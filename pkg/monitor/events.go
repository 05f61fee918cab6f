package monitor

import (
	"time"
)

// EventType represents the type of run event.
type EventType string

const (
	EventRunStarted  EventType = "run_started"
	EventCaseDone    EventType = "case_finished"
	EventRunFinished EventType = "run_finished"
)

// RunEvent represents a lifecycle event during an evaluation run.
type RunEvent struct {
	Type      EventType     `json:"type"`
	RunID     string        `json:"run_id"`
	Function  string        `json:"function,omitempty"`
	Status    string        `json:"status,omitempty"`
	Case      int           `json:"case,omitempty"`
	Cases     int           `json:"cases,omitempty"`
	Passed    bool          `json:"passed,omitempty"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
