package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digital.vasic.snippetcheck/pkg/result"
)

// Summary aggregates many runs.
type Summary struct {
	ID              string       `json:"id"`
	GeneratedAt     time.Time    `json:"generated_at"`
	Runs            []RunSummary `json:"runs"`
	TotalRuns       int          `json:"total_runs"`
	PassedRuns      int          `json:"passed_runs"`
	FailedRuns      int          `json:"failed_runs"`
	ErroredRuns     int          `json:"errored_runs"`
	TotalCases      int          `json:"total_cases"`
	PassedCases     int          `json:"passed_cases"`
	TotalDurationMs int64        `json:"total_duration_ms"`
	PassRate        float64      `json:"pass_rate"`
}

// RunSummary is the one-line view of a run.
type RunSummary struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	CasesPassed int    `json:"cases_passed"`
	CasesTotal  int    `json:"cases_total"`
	DurationMs  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

// BuildSummary creates a Summary from entries. PassRate is the
// fraction of runs whose every case passed.
func BuildSummary(entries []Entry) *Summary {
	now := time.Now()
	s := &Summary{
		ID:          "summary_" + now.Format("20060102_150405"),
		GeneratedAt: now,
		Runs:        make([]RunSummary, 0, len(entries)),
	}

	for _, e := range entries {
		res := e.Result
		rs := RunSummary{
			Name:        e.Name,
			Status:      res.Status,
			CasesPassed: res.PassedCount(),
			CasesTotal:  len(res.Results),
			DurationMs:  res.DurationMs,
		}
		if !res.IsConsoleOnly() {
			rs.Error = res.Error
		}
		s.Runs = append(s.Runs, rs)

		s.TotalRuns++
		s.TotalCases += rs.CasesTotal
		s.PassedCases += rs.CasesPassed
		s.TotalDurationMs += res.DurationMs
		switch res.Status {
		case result.StatusPassed:
			s.PassedRuns++
		case result.StatusFailed:
			s.FailedRuns++
		default:
			s.ErroredRuns++
		}
	}

	if s.TotalRuns > 0 {
		s.PassRate = float64(s.PassedRuns) / float64(s.TotalRuns)
	}
	return s
}

// SaveSummary writes the summary as JSON and Markdown into
// outputDir and points latest_summary.* at them.
func SaveSummary(s *Summary, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ts := s.GeneratedAt.Format("20060102_150405")

	jsonPath := filepath.Join(outputDir, fmt.Sprintf("summary_%s.json", ts))
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON summary: %w", err)
	}

	mdPath := filepath.Join(outputDir, fmt.Sprintf("summary_%s.md", ts))
	if err := os.WriteFile(mdPath, []byte(SummaryMarkdown(s)), 0o644); err != nil {
		return fmt.Errorf("failed to write Markdown summary: %w", err)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")
	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return nil
}

// SummaryMarkdown renders s as a Markdown document.
func SummaryMarkdown(s *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Snippet Check Summary\n\n")
	fmt.Fprintf(&sb, "**Summary ID:** %s\n\n", s.ID)
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	sb.WriteString("## Runs\n\n")
	sb.WriteString("| Problem | Status | Cases | Duration |\n")
	sb.WriteString("|---------|--------|-------|----------|\n")
	for _, r := range s.Runs {
		fmt.Fprintf(&sb, "| %s | %s | %d/%d | %dms |\n",
			escapeCell(r.Name), strings.ToUpper(r.Status),
			r.CasesPassed, r.CasesTotal, r.DurationMs)
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Runs | %d |\n", s.TotalRuns)
	fmt.Fprintf(&sb, "| Passed | %d |\n", s.PassedRuns)
	fmt.Fprintf(&sb, "| Failed | %d |\n", s.FailedRuns)
	fmt.Fprintf(&sb, "| Errored | %d |\n", s.ErroredRuns)
	fmt.Fprintf(&sb, "| Cases passed | %d/%d |\n", s.PassedCases, s.TotalCases)
	fmt.Fprintf(&sb, "| Pass Rate | %.0f%% |\n", s.PassRate*100)
	fmt.Fprintf(&sb, "| Total Duration | %dms |\n", s.TotalDurationMs)

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
