package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/records"
)

func init() {
	color.NoColor = true
}

var origin = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func checkoutResult() framework.TestResult {
	openCart := records.NewStepRecord("open cart", origin)
	openCart.FinishAt(origin.Add(250*time.Millisecond), nil)
	pay := records.NewStepRecord("pay", origin.Add(500*time.Millisecond))
	pay.FinishAt(origin.Add(750*time.Millisecond), errors.New("card declined"))
	return framework.TestResult{
		TestID:   framework.NewTestID("TestCheckout/guest"),
		Failed:   true,
		Duration: 1500 * time.Millisecond,
		Timeline: records.Timeline{
			Started: origin,
			Records: []records.Record{
				openCart,
				records.NewSoftCheckRecord("total matches", false, []string{"total == 42 (41 == 42)"}),
				records.DataRecord{Label: "cart", Payload: records.PayloadOf(map[string]int{"items": 2})},
				pay,
			},
		},
	}
}

func passingResult(name string) framework.TestResult {
	return framework.TestResult{
		TestID:   framework.NewTestID(name),
		Duration: 10 * time.Millisecond,
		Timeline: records.Timeline{Started: origin},
	}
}

func TestNewEntryOutcome(t *testing.T) {
	assert.Equal(t, OutcomePassed, NewEntry(passingResult("TestA")).Outcome)
	assert.Equal(t, OutcomeFailed, NewEntry(checkoutResult()).Outcome)

	skipped := passingResult("TestB")
	skipped.Skipped = true
	skipped.Failed = true
	assert.Equal(t, OutcomeSkipped, NewEntry(skipped).Outcome)
}

func TestNewEntryContent(t *testing.T) {
	e := NewEntry(checkoutResult())
	assert.Equal(t, "TestCheckout/guest", e.ID)
	assert.Equal(t, 1.5, e.Duration)
	assert.Equal(t, []string{"total matches: total == 42 (41 == 42)"}, e.SoftFailures)
	require.Len(t, e.Timeline, 4)
	assert.Equal(t, "step", e.Timeline[0].GetByKey("kind").StringValue())
	assert.Equal(t, "card declined", e.Timeline[3].GetByKey("error").StringValue())
	assert.Equal(t, []string{"TestCheckout", "guest"}, e.TestID().Path)
}

func TestNewDocumentSummary(t *testing.T) {
	skipped := passingResult("TestC")
	skipped.Skipped = true
	doc := NewDocument("run", []Entry{
		NewEntry(passingResult("TestA")),
		NewEntry(checkoutResult()),
		NewEntry(skipped),
	})
	assert.Equal(t, Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, doc.Summary)
	assert.False(t, doc.OK())
	failures := doc.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "TestCheckout/guest", failures[0].ID)
}

func TestEmptyDocumentEncodesEmptyTests(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewDocument("run", nil), FormatJSON))
	assert.Contains(t, buf.String(), `"tests": []`)
	assert.True(t, NewDocument("run", nil).OK())
}

func TestDocumentFilter(t *testing.T) {
	doc := NewDocument("run", []Entry{
		NewEntry(passingResult("TestA")),
		NewEntry(checkoutResult()),
	})
	var filters framework.RegexFilters
	require.NoError(t, filters.MustMatch.Set("Checkout"))
	filtered := doc.Filter(filters.AsFilter)
	require.Len(t, filtered.Tests, 1)
	assert.Equal(t, Summary{Total: 1, Failed: 1}, filtered.Summary)
	assert.Equal(t, "run", filtered.RunID)

	assert.Len(t, doc.Filter(nil).Tests, 2)
}

func TestJSONDocumentGolden(t *testing.T) {
	doc := NewDocument("run-1", []Entry{NewEntry(checkoutResult())})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatJSON))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "document", buf.Bytes())
}

func TestReadRoundTrip(t *testing.T) {
	doc := NewDocument("run-1", []Entry{NewEntry(checkoutResult()), NewEntry(passingResult("TestA"))})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatJSON))

	read, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "run-1", read.RunID)
	assert.Equal(t, doc.Summary, read.Summary)
	require.Len(t, read.Tests, 2)
	assert.Equal(t, doc.Tests[0].SoftFailures, read.Tests[0].SoftFailures)
	require.Len(t, read.Tests[0].Timeline, 4)
	for i := range doc.Tests[0].Timeline {
		assert.Equal(t, doc.Tests[0].Timeline[i].AsArbitraryValue(), read.Tests[0].Timeline[i].AsArbitraryValue())
	}
	assert.Empty(t, read.Tests[1].Timeline)
}

func TestReadYAML(t *testing.T) {
	doc := NewDocument("run-2", []Entry{NewEntry(checkoutResult()), NewEntry(passingResult("TestA"))})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatYAML))

	read, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "run-2", read.RunID)
	assert.Equal(t, doc.Summary, read.Summary)
	require.Len(t, read.Tests, 2)
	assert.Equal(t, doc.Tests[0].ID, read.Tests[0].ID)
	assert.Equal(t, doc.Tests[0].Outcome, read.Tests[0].Outcome)
	assert.Equal(t, doc.Tests[0].Duration, read.Tests[0].Duration)
	assert.Equal(t, doc.Tests[0].SoftFailures, read.Tests[0].SoftFailures)
	require.Len(t, read.Tests[0].Timeline, 4)
	for i := range doc.Tests[0].Timeline {
		assert.Equal(t, doc.Tests[0].Timeline[i].AsArbitraryValue(), read.Tests[0].Timeline[i].AsArbitraryValue())
	}
}

func TestReadInvalid(t *testing.T) {
	_, err := Read(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestWriteYAML(t *testing.T) {
	doc := NewDocument("run-1", []Entry{NewEntry(checkoutResult())})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatYAML))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	tests := decoded["tests"].([]interface{})
	require.Len(t, tests, 1)
	entry := tests[0].(map[string]interface{})
	assert.Equal(t, "failed", entry["outcome"])
	timeline := entry["timeline"].([]interface{})
	require.Len(t, timeline, 4)
	assert.Equal(t, "open cart", timeline[0].(map[string]interface{})["name"])
	assert.Equal(t, "cart", timeline[2].(map[string]interface{})["label"])
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, NewDocument("run", nil), Format("xml")))
}

func TestParseFormat(t *testing.T) {
	for input, expected := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, " yaml ": FormatYAML, "text": FormatText} {
		f, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, f, input)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvReportPath, "out/report.yaml")
	t.Setenv(EnvReportFormat, "yaml")
	t.Setenv(EnvConsole, "failures")
	t.Setenv(EnvDebug, "1")
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Path: "out/report.yaml", Format: FormatYAML, Console: ConsoleFailures, Debug: true}, c)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvReportPath, "")
	t.Setenv(EnvReportFormat, "")
	t.Setenv(EnvConsole, "")
	t.Setenv(EnvDebug, "")
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Format: FormatJSON, Console: ConsoleOff}, c)
}

func TestConfigFromEnvErrors(t *testing.T) {
	t.Setenv(EnvReportFormat, "text")
	_, err := ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv(EnvReportFormat, "json")
	t.Setenv(EnvConsole, "sometimes")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}

func TestCollector(t *testing.T) {
	c := NewCollector(WithRunID("fixed"))
	assert.Equal(t, "fixed", c.RunID())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.TestStarted(framework.NewTestID("TestA"))
			c.TestFinished(passingResult("TestA"))
		}()
	}
	wg.Wait()
	doc := c.Document()
	assert.Equal(t, "fixed", doc.RunID)
	assert.Equal(t, 20, doc.Summary.Passed)
	assert.True(t, c.Results().OK())

	c.TestFinished(checkoutResult())
	assert.False(t, c.Results().OK())
	assert.Len(t, c.Results().Failures, 1)
}

func TestCollectorGeneratesRunID(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	assert.Len(t, a.RunID(), 36)
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestCollectorWriteFile(t *testing.T) {
	c := NewCollector(WithRunID("fixed"))
	c.TestFinished(checkoutResult())
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, c.WriteFile(path, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "fixed", decoded["run_id"])
}

func TestPrintEntryFailed(t *testing.T) {
	var buf bytes.Buffer
	PrintEntry(&buf, NewEntry(checkoutResult()), PrintOptions{Payloads: true})
	expected := `[TestCheckout/guest] FAILED (1.500s)
  step  open cart ok (0.250s)
  check FAIL total matches
        total == 42 (41 == 42)
  data  cart
        {
          "items": 2
        }
  step  pay failed (0.250s)
        error: card declined
`
	assert.Equal(t, expected, buf.String())
}

func TestPrintEntryPassedOmitsTimeline(t *testing.T) {
	result := passingResult("TestA")
	result.Timeline.Records = []records.Record{records.NewSoftCheckRecord("fine", true, nil)}

	var buf bytes.Buffer
	PrintEntry(&buf, NewEntry(result), PrintOptions{})
	assert.Equal(t, "[TestA] PASSED (0.010s)\n", buf.String())

	buf.Reset()
	PrintEntry(&buf, NewEntry(result), PrintOptions{Timeline: true})
	assert.Equal(t, "[TestA] PASSED (0.010s)\n  check PASS fine\n", buf.String())
}

func TestPrintEntryOpenStep(t *testing.T) {
	result := passingResult("TestA")
	result.Timeline.Records = []records.Record{records.NewStepRecord("waiting", origin)}
	var buf bytes.Buffer
	PrintEntry(&buf, NewEntry(result), PrintOptions{Timeline: true})
	assert.Contains(t, buf.String(), "  step  waiting open (open)\n")
}

func TestPrintDocument(t *testing.T) {
	doc := NewDocument("run", []Entry{NewEntry(passingResult("TestA")), NewEntry(checkoutResult())})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatText))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[TestA] PASSED (0.010s)\n[TestCheckout/guest] FAILED (1.500s)\n"))
	assert.True(t, strings.HasSuffix(out, "\n2 tests: 1 passed, 1 failed, 0 skipped\n"))
}

func TestConsoleTestLogger(t *testing.T) {
	var buf bytes.Buffer
	c := &ConsoleTestLogger{Out: &buf, Mode: ConsoleFailures}
	c.TestStarted(framework.NewTestID("TestA"))
	c.TestFinished(passingResult("TestA"))
	assert.Empty(t, buf.String())

	c.TestFinished(checkoutResult())
	assert.True(t, strings.HasPrefix(buf.String(), "[TestCheckout/guest] FAILED"))

	buf.Reset()
	c.Mode = ConsoleAll
	c.TestFinished(passingResult("TestA"))
	assert.Equal(t, "[TestA] PASSED (0.010s)\n", buf.String())

	buf.Reset()
	c.Mode = ConsoleOff
	c.TestFinished(checkoutResult())
	assert.Empty(t, buf.String())
}

func TestRerunCommand(t *testing.T) {
	entries := []Entry{
		NewEntry(checkoutResult()),
		NewEntry(passingResult("TestLogin/bad_password")),
		NewEntry(passingResult("TestLogin/locked")),
	}
	assert.Equal(t, `go test -run '^(TestCheckout|TestLogin)$' ./...`, RerunCommand(entries))
	assert.Equal(t, `go test -run '^(TestLogin)$' ./auth`, RerunCommand(entries[1:], "./auth"))
	assert.Equal(t, "", RerunCommand(nil))
}

func TestPayloadOfValueStaysIntact(t *testing.T) {
	v := ldvalue.ObjectBuild().Set("a", ldvalue.Int(1)).Build()
	e := NewEntry(framework.TestResult{Timeline: records.Timeline{Records: []records.Record{
		records.DataRecord{Label: "x", Payload: v},
	}}})
	assert.Equal(t, `{"a":1}`, e.Timeline[0].GetByKey("payload").JSONString())
}
