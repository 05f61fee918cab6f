package report

import (
	"encoding/json"
	"io"
)

// JSONReporter generates JSON reports.
type JSONReporter struct {
	pretty bool
}

// NewJSONReporter creates a new JSON reporter. When pretty is
// true, output is indented for readability.
func NewJSONReporter(pretty bool) *JSONReporter {
	return &JSONReporter{pretty: pretty}
}

func (r *JSONReporter) marshal(v any) ([]byte, error) {
	if r.pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// GenerateReport renders the entry's RunResult.
func (r *JSONReporter) GenerateReport(entry Entry) ([]byte, error) {
	return r.marshal(entry.Result)
}

// jsonSummary is the JSON structure for a summary.
type jsonSummary struct {
	*Summary
	Entries []Entry `json:"entries"`
}

// GenerateSummary renders the Summary of entries together with
// every RunResult.
func (r *JSONReporter) GenerateSummary(entries []Entry) ([]byte, error) {
	return r.marshal(jsonSummary{
		Summary: BuildSummary(entries),
		Entries: entries,
	})
}

// WriteReport writes a JSON report followed by a newline.
func (r *JSONReporter) WriteReport(w io.Writer, entry Entry) error {
	data, err := r.GenerateReport(entry)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
