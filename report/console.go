package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/go-test-timeline/framework"
)

var (
	passColor  = color.New(color.FgGreen)
	failColor  = color.New(color.FgRed, color.Bold)
	skipColor  = color.New(color.FgYellow)
	labelColor = color.New(color.FgCyan)
)

// PrintOptions controls how much of a test's timeline is printed.
type PrintOptions struct {
	// Timeline prints the records of every test. Failed tests always show their records.
	Timeline bool
	// Payloads prints the payload of each data record as indented JSON.
	Payloads bool
}

// PrintEntry writes a human-readable rendering of one test.
func PrintEntry(w io.Writer, e Entry, opts PrintOptions) {
	fmt.Fprintf(w, "[%s] %s (%.3fs)\n", e.ID, outcomeLabel(e.Outcome), e.Duration)
	if !opts.Timeline && e.Outcome != OutcomeFailed {
		return
	}
	for _, v := range e.Timeline {
		printRecord(w, v, opts)
	}
}

func outcomeLabel(o Outcome) string {
	switch o {
	case OutcomePassed:
		return passColor.Sprint("PASSED")
	case OutcomeFailed:
		return failColor.Sprint("FAILED")
	case OutcomeSkipped:
		return skipColor.Sprint("SKIPPED")
	default:
		return strings.ToUpper(string(o))
	}
}

func printRecord(w io.Writer, v ldvalue.Value, opts PrintOptions) {
	switch v.GetByKey("kind").StringValue() {
	case "step":
		duration := "open"
		if d := v.GetByKey("duration"); !d.IsNull() {
			duration = fmt.Sprintf("%.3fs", d.Float64Value())
		}
		outcome := v.GetByKey("outcome").StringValue()
		switch outcome {
		case "ok":
			outcome = passColor.Sprint(outcome)
		case "failed":
			outcome = failColor.Sprint(outcome)
		}
		fmt.Fprintf(w, "  step  %s %s (%s)\n", v.GetByKey("name").StringValue(), outcome, duration)
		if e := v.GetByKey("error"); !e.IsNull() {
			printIndented(w, "        error: ", e.StringValue())
		}
	case "soft_check":
		status := passColor.Sprint("PASS")
		if !v.GetByKey("passed").BoolValue() {
			status = failColor.Sprint("FAIL")
		}
		fmt.Fprintf(w, "  check %s %s\n", status, v.GetByKey("message").StringValue())
		details := v.GetByKey("details")
		if details.Type() == ldvalue.StringType {
			printIndented(w, "        ", details.StringValue())
		} else {
			for i := 0; i < details.Count(); i++ {
				printIndented(w, "        ", details.GetByIndex(i).StringValue())
			}
		}
	case "data":
		fmt.Fprintf(w, "  data  %s\n", labelColor.Sprint(v.GetByKey("label").StringValue()))
		if opts.Payloads {
			printIndented(w, "        ", indentJSON(v.GetByKey("payload")))
		}
	}
}

func printIndented(w io.Writer, prefix, text string) {
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(text, "\n") {
		if i == 0 {
			fmt.Fprintf(w, "%s%s\n", prefix, line)
		} else {
			fmt.Fprintf(w, "%s%s\n", pad, line)
		}
	}
}

func indentJSON(v ldvalue.Value) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(v.JSONString()), "", "  "); err != nil {
		return v.JSONString()
	}
	return buf.String()
}

// PrintDocument writes every entry followed by a one-line summary.
func PrintDocument(w io.Writer, doc Document, opts PrintOptions) {
	for _, e := range doc.Tests {
		PrintEntry(w, e, opts)
	}
	fmt.Fprintln(w)
	PrintSummary(w, doc.Summary)
}

func PrintSummary(w io.Writer, s Summary) {
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = failColor.Sprint(failed)
	}
	fmt.Fprintf(w, "%d tests: %d passed, %s, %d skipped\n", s.Total, s.Passed, failed, s.Skipped)
}

// ConsoleTestLogger prints each test as it finishes. It is safe for concurrent use.
type ConsoleTestLogger struct {
	// Out defaults to os.Stdout.
	Out      io.Writer
	Mode     ConsoleMode
	Payloads bool
	lock     sync.Mutex
}

func (c *ConsoleTestLogger) TestStarted(framework.TestID) {}

func (c *ConsoleTestLogger) TestFinished(result framework.TestResult) {
	if c.Mode == ConsoleOff || (c.Mode == ConsoleFailures && !result.Failed) {
		return
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	entry := NewEntry(result)
	c.lock.Lock()
	defer c.lock.Unlock()
	PrintEntry(out, entry, PrintOptions{Timeline: c.Mode == ConsoleAll, Payloads: c.Payloads})
}
