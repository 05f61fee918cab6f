// Package report renders evaluation results for people and tools.
package report

import (
	"io"

	"digital.vasic.snippetcheck/pkg/result"
)

// Entry is one labelled run: a problem ID or file name together
// with its RunResult.
type Entry struct {
	Name   string           `json:"name"`
	Result result.RunResult `json:"result"`
}

// Reporter defines the interface for generating run reports.
type Reporter interface {
	// GenerateReport renders a single run.
	GenerateReport(entry Entry) ([]byte, error)

	// GenerateSummary renders an overview of many runs.
	GenerateSummary(entries []Entry) ([]byte, error)

	// WriteReport writes a single run report to w.
	WriteReport(w io.Writer, entry Entry) error
}
