package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"digital.vasic.snippetcheck/pkg/result"
)

// TextReporter renders runs as plain text for terminals.
type TextReporter struct {
	// Verbose also lists passing cases.
	Verbose bool
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(verbose bool) *TextReporter {
	return &TextReporter{Verbose: verbose}
}

// GenerateReport renders a single run.
func (r *TextReporter) GenerateReport(entry Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, entry); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReport writes one line per case and a closing verdict.
// Top-level failures are written in place of the cases.
func (r *TextReporter) WriteReport(w io.Writer, entry Entry) error {
	res := entry.Result
	var sb strings.Builder

	if entry.Name != "" {
		fmt.Fprintf(&sb, "== %s ==\n", entry.Name)
	}

	if len(res.Results) == 0 && res.Error != "" && !res.IsConsoleOnly() {
		fmt.Fprintf(&sb, "%s\n", res.Error)
	}

	for i, tr := range res.Results {
		if tr.Passed && !r.Verbose {
			continue
		}
		writeCase(&sb, i, tr)
	}

	if res.Console != "" {
		sb.WriteString(result.ConsolePrefix + "\n")
		for _, line := range strings.Split(res.Console, "\n") {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}

	fmt.Fprintf(&sb, "%s  %d/%d passed (%s, %dms)\n",
		verdict(res), res.PassedCount(), len(res.Results),
		res.Status, res.DurationMs)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCase(sb *strings.Builder, i int, tr result.TestResult) {
	mark := "FAIL"
	if tr.Passed {
		mark = "ok"
	}
	fmt.Fprintf(sb, "  %-4s #%d", mark, i+1)
	if tr.Description != "" {
		fmt.Fprintf(sb, " %s", tr.Description)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(sb, "       input:    %s\n", tr.DisplayInput())
	fmt.Fprintf(sb, "       expected: %s\n", tr.DisplayExpected())
	if tr.Error != "" {
		fmt.Fprintf(sb, "       error:    %s\n", tr.Error)
		return
	}
	fmt.Fprintf(sb, "       actual:   %s\n", tr.DisplayActual())
}

func verdict(res result.RunResult) string {
	if res.AllPassed {
		return "PASS"
	}
	return "FAIL"
}

// GenerateSummary renders the Markdown overview of entries.
func (r *TextReporter) GenerateSummary(entries []Entry) ([]byte, error) {
	return []byte(SummaryMarkdown(BuildSummary(entries))), nil
}
