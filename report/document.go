package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/records"
)

// Outcome is the final state of a test in a report.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Entry is one test in a report. Timeline holds the serialized records in order.
type Entry struct {
	ID           string          `json:"id"`
	Outcome      Outcome         `json:"outcome"`
	Duration     float64         `json:"duration"`
	SoftFailures []string        `json:"soft_failures,omitempty"`
	Timeline     []ldvalue.Value `json:"timeline"`
}

// NewEntry converts a finished test result.
func NewEntry(result framework.TestResult) Entry {
	outcome := OutcomePassed
	switch {
	case result.Skipped:
		outcome = OutcomeSkipped
	case result.Failed:
		outcome = OutcomeFailed
	}
	var soft []string
	for _, f := range result.SoftFailures() {
		soft = append(soft, describeSoftFailure(f))
	}
	return Entry{
		ID:           result.TestID.String(),
		Outcome:      outcome,
		Duration:     result.Duration.Seconds(),
		SoftFailures: soft,
		Timeline:     result.Timeline.Values(),
	}
}

func describeSoftFailure(f records.SoftCheckRecord) string {
	if len(f.Details) == 0 {
		return f.Message
	}
	return f.Message + ": " + strings.Join(f.Details, "\n")
}

// TestID returns the entry's ID split back into its path.
func (e Entry) TestID() framework.TestID {
	return framework.NewTestID(e.ID)
}

// entryWire is the encoded form of Entry. Records are converted to plain maps so that encoders
// emit their keys in sorted order.
type entryWire struct {
	ID           string        `json:"id" yaml:"id"`
	Outcome      Outcome       `json:"outcome" yaml:"outcome"`
	Duration     float64       `json:"duration" yaml:"duration"`
	SoftFailures []string      `json:"soft_failures,omitempty" yaml:"soft_failures,omitempty"`
	Timeline     []interface{} `json:"timeline" yaml:"timeline"`
}

func (e Entry) wire() entryWire {
	timeline := make([]interface{}, 0, len(e.Timeline))
	for _, v := range e.Timeline {
		timeline = append(timeline, v.AsArbitraryValue())
	}
	return entryWire{
		ID:           e.ID,
		Outcome:      e.Outcome,
		Duration:     e.Duration,
		SoftFailures: e.SoftFailures,
		Timeline:     timeline,
	}
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

func (e Entry) MarshalYAML() (interface{}, error) {
	return e.wire(), nil
}

// Summary counts tests by outcome.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Passed  int `json:"passed" yaml:"passed"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

func summarize(entries []Entry) Summary {
	s := Summary{Total: len(entries)}
	for _, e := range entries {
		switch e.Outcome {
		case OutcomePassed:
			s.Passed++
		case OutcomeFailed:
			s.Failed++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	return s
}

// Document is a complete report for one test run.
type Document struct {
	RunID   string  `json:"run_id" yaml:"run_id"`
	Summary Summary `json:"summary" yaml:"summary"`
	Tests   []Entry `json:"tests" yaml:"tests"`
}

// NewDocument builds a document, computing its summary from the entries.
func NewDocument(runID string, entries []Entry) Document {
	if entries == nil {
		entries = []Entry{}
	}
	return Document{RunID: runID, Summary: summarize(entries), Tests: entries}
}

func (d Document) OK() bool {
	return d.Summary.Failed == 0
}

// Failures returns the entries of failed tests.
func (d Document) Failures() []Entry {
	var ret []Entry
	for _, e := range d.Tests {
		if e.Outcome == OutcomeFailed {
			ret = append(ret, e)
		}
	}
	return ret
}

// Filter returns a copy of the document containing only the tests accepted by f.
func (d Document) Filter(f framework.Filter) Document {
	if f == nil {
		return d
	}
	var kept []Entry
	for _, e := range d.Tests {
		if f(e.TestID()) {
			kept = append(kept, e)
		}
	}
	return NewDocument(d.RunID, kept)
}

// Read decodes a document written in either the JSON or the YAML format. JSON is accepted
// because it is also valid YAML.
func Read(r io.Reader) (Document, error) {
	var raw interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("decode report: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode report: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode report: %w", err)
	}
	doc.Summary = summarize(doc.Tests)
	return doc, nil
}
