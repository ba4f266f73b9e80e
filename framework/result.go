package framework

import (
	"fmt"
	"strings"
	"time"

	"github.com/launchdarkly/go-test-timeline/records"
)

// TestID identifies a test by its path of names, outermost first.
type TestID struct {
	Path []string
}

// NewTestID splits a Go test name such as "TestLogin/valid_user" into a TestID.
func NewTestID(name string) TestID {
	if name == "" {
		return TestID{}
	}
	return TestID{Path: strings.Split(name, "/")}
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// IsZero is true for the identity of "no test".
func (t TestID) IsZero() bool {
	return len(t.Path) == 0
}

// TopLevel returns the name of the outermost test, which is what "go test -run" matches first.
func (t TestID) TopLevel() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[0]
}

// TestResult is the final state of one test, including its drained timeline.
type TestResult struct {
	TestID   TestID
	Failed   bool
	Skipped  bool
	Duration time.Duration
	Timeline records.Timeline
	Errors   []error
}

// SoftFailures returns the failed soft checks of the test's timeline.
func (r TestResult) SoftFailures() []records.SoftCheckRecord {
	return r.Timeline.SoftFailures()
}

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

func (r *Results) Add(result TestResult) {
	r.Tests = append(r.Tests, result)
	if result.Failed {
		r.Failures = append(r.Failures, result)
	}
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// SoftAssertionError describes the failed soft checks of a test. It is what the test is failed
// with at the end of its run.
type SoftAssertionError struct {
	ID       TestID
	Failures []records.SoftCheckRecord
}

func (e SoftAssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d soft assertion(s) failed", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  - %s", f.Message)
		for _, d := range f.Details {
			for _, line := range strings.Split(d, "\n") {
				fmt.Fprintf(&b, "\n      %s", line)
			}
		}
	}
	return b.String()
}
