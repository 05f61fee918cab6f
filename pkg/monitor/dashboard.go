package monitor

import (
	"sync"
	"time"

	"digital.vasic.snippetcheck/pkg/result"
)

// DashboardData provides a real-time snapshot of recent runs.
type DashboardData struct {
	mu        sync.RWMutex
	StartTime time.Time           `json:"start_time"`
	Runs      map[string]RunState `json:"runs"`
	Summary   DashboardSummary    `json:"summary"`
}

// RunState represents the current state of one run.
type RunState struct {
	RunID     string        `json:"run_id"`
	Function  string        `json:"function,omitempty"`
	Status    string        `json:"status"`
	Cases     int           `json:"cases"`
	Done      int           `json:"done"`
	Passed    int           `json:"passed"`
	StartTime *time.Time    `json:"start_time,omitempty"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errored  int     `json:"errored"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// running is the status of a run that has not finished.
const running = "running"

// NewDashboardData creates an empty dashboard.
func NewDashboardData() *DashboardData {
	return &DashboardData{
		StartTime: time.Now(),
		Runs:      make(map[string]RunState),
	}
}

// UpdateFromEvent updates dashboard state from a run event.
func (d *DashboardData) UpdateFromEvent(event RunEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := event.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	state, exists := d.Runs[event.RunID]
	if !exists {
		state = RunState{RunID: event.RunID, Status: running}
	}
	if event.Function != "" {
		state.Function = event.Function
	}

	switch event.Type {
	case EventRunStarted:
		state.Status = running
		state.Cases = event.Cases
		state.StartTime = &now
	case EventCaseDone:
		state.Done++
		if event.Passed {
			state.Passed++
		}
	case EventRunFinished:
		state.Status = event.Status
		state.Cases = event.Cases
		state.EndTime = &now
		state.Duration = event.Duration
		state.Message = event.Message
	}

	d.Runs[event.RunID] = state
	d.recalcSummary()
}

func (d *DashboardData) recalcSummary() {
	s := DashboardSummary{}
	for _, run := range d.Runs {
		s.Total++
		switch run.Status {
		case result.StatusPassed:
			s.Passed++
		case result.StatusFailed:
			s.Failed++
		case running:
			s.Running++
		default:
			s.Errored++
		}
	}
	if completed := s.Passed + s.Failed + s.Errored; completed > 0 {
		s.PassRate = float64(s.Passed) / float64(completed) * 100
	}
	s.Elapsed = time.Since(d.StartTime).Round(time.Millisecond).String()
	d.Summary = s
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() *DashboardData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := &DashboardData{
		StartTime: d.StartTime,
		Summary:   d.Summary,
		Runs:      make(map[string]RunState, len(d.Runs)),
	}
	for k, v := range d.Runs {
		snap.Runs[k] = v
	}
	return snap
}

// BuildDashboardData creates a DashboardData snapshot from an
// EventCollector by replaying the retained events.
func BuildDashboardData(collector *EventCollector) *DashboardData {
	data := NewDashboardData()
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
