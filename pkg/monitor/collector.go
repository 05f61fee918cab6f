// Package monitor collects run lifecycle events and streams them to
// WebSocket clients.
package monitor

import (
	"sync"
	"time"

	"digital.vasic.snippetcheck/pkg/result"
)

// DefaultRetain is the number of events an EventCollector keeps.
const DefaultRetain = 1024

// EventCollector captures run events and aggregate counts.
type EventCollector struct {
	mu       sync.RWMutex
	events   []RunEvent
	retain   int
	handlers []func(RunEvent)
	stats    CollectorStats
}

// CollectorStats holds aggregate statistics.
type CollectorStats struct {
	Runs        int           `json:"runs"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Errored     int           `json:"errored"`
	InFlight    int           `json:"in_flight"`
	Cases       int           `json:"cases"`
	CasesPassed int           `json:"cases_passed"`
	TimedOut    int           `json:"timed_out"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
}

// NewEventCollector creates a collector keeping the last
// DefaultRetain events.
func NewEventCollector() *EventCollector {
	return NewEventCollectorRetaining(DefaultRetain)
}

// NewEventCollectorRetaining creates a collector keeping the last
// n events. Statistics cover every event regardless of n.
func NewEventCollectorRetaining(n int) *EventCollector {
	if n <= 0 {
		n = DefaultRetain
	}
	return &EventCollector{
		events: make([]RunEvent, 0, min(n, 64)),
		retain: n,
		stats:  CollectorStats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler to be called for each event.
func (c *EventCollector) OnEvent(handler func(RunEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *EventCollector) Emit(event RunEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	if len(c.events) == c.retain {
		copy(c.events, c.events[1:])
		c.events = c.events[:len(c.events)-1]
	}
	c.events = append(c.events, event)

	switch event.Type {
	case EventRunStarted:
		c.stats.Runs++
		c.stats.InFlight++
	case EventCaseDone:
		c.stats.Cases++
		if event.Passed {
			c.stats.CasesPassed++
		}
		if event.TimedOut {
			c.stats.TimedOut++
		}
	case EventRunFinished:
		c.stats.InFlight--
		switch event.Status {
		case result.StatusPassed:
			c.stats.Passed++
		case result.StatusFailed:
			c.stats.Failed++
		default:
			c.stats.Errored++
		}
	}
	c.stats.Duration = time.Since(c.stats.StartTime)
	handlers := make([]func(RunEvent), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// EmitRunStarted emits a run started event.
func (c *EventCollector) EmitRunStarted(runID string, cases int) {
	c.Emit(RunEvent{
		Type:  EventRunStarted,
		RunID: runID,
		Cases: cases,
	})
}

// EmitCase emits the outcome of one test case.
func (c *EventCollector) EmitCase(
	runID, function string, index int, tr result.TestResult,
) {
	c.Emit(RunEvent{
		Type:     EventCaseDone,
		RunID:    runID,
		Function: function,
		Case:     index,
		Passed:   tr.Passed,
		TimedOut: tr.TimedOut,
		Message:  tr.Error,
		Duration: time.Duration(tr.DurationMs) * time.Millisecond,
	})
}

// EmitRunFinished emits a run finished event.
func (c *EventCollector) EmitRunFinished(
	runID, function string, res result.RunResult,
) {
	ev := RunEvent{
		Type:     EventRunFinished,
		RunID:    runID,
		Function: function,
		Status:   res.Status,
		Cases:    len(res.Results),
		Passed:   res.AllPassed,
		Duration: time.Duration(res.DurationMs) * time.Millisecond,
	}
	if !res.IsConsoleOnly() {
		ev.Message = res.Error
	}
	c.Emit(ev)
}

// Events returns a copy of the retained events.
func (c *EventCollector) Events() []RunEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]RunEvent, len(c.events))
	copy(result, c.events)
	return result
}

// Stats returns the current aggregate statistics.
func (c *EventCollector) Stats() CollectorStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Duration = time.Since(s.StartTime)
	return s
}

// Reset clears all collected events and statistics.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.stats = CollectorStats{StartTime: time.Now()}
}
