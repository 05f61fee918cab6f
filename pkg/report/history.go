package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// HistoricalEntry represents a single run in the history log.
type HistoricalEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	DurationMs  int64     `json:"duration_ms"`
	CasesPassed int       `json:"cases_passed"`
	CasesTotal  int       `json:"cases_total"`
}

// AppendToHistory adds an entry to the history log stored at
// historyPath. Each entry is a single JSON line.
func AppendToHistory(historyPath string, entry Entry) error {
	res := entry.Result
	data, err := json.Marshal(HistoricalEntry{
		Timestamp:   time.Now().UTC(),
		RunID:       res.RunID,
		Name:        entry.Name,
		Status:      res.Status,
		DurationMs:  res.DurationMs,
		CasesPassed: res.PassedCount(),
		CasesTotal:  len(res.Results),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0o644,
	)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	_, err = fmt.Fprintln(file, string(data))
	return err
}

// ReadHistory returns every entry in the history log, oldest
// first.
func ReadHistory(historyPath string) ([]HistoricalEntry, error) {
	file, err := os.Open(historyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []HistoricalEntry
	dec := json.NewDecoder(file)
	for dec.More() {
		var e HistoricalEntry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("failed to decode history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
