package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/launchdarkly/go-test-timeline/framework"
)

// Collector accumulates the results of finished tests. It is safe for concurrent use.
type Collector struct {
	runID   string
	results framework.Results
	lock    sync.Mutex
}

type CollectorOption func(*Collector)

// WithRunID sets the run ID instead of generating a random one.
func WithRunID(id string) CollectorOption {
	return func(c *Collector) { c.runID = id }
}

func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{runID: uuid.NewString()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Collector) RunID() string { return c.runID }

func (c *Collector) TestStarted(framework.TestID) {}

func (c *Collector) TestFinished(result framework.TestResult) {
	c.lock.Lock()
	c.results.Add(result)
	c.lock.Unlock()
}

// Results returns a copy of the results collected so far.
func (c *Collector) Results() framework.Results {
	c.lock.Lock()
	defer c.lock.Unlock()
	return framework.Results{
		Tests:    append([]framework.TestResult(nil), c.results.Tests...),
		Failures: append([]framework.TestResult(nil), c.results.Failures...),
	}
}

// Document returns the tests finished so far, in the order they finished.
func (c *Collector) Document() Document {
	results := c.Results()
	entries := make([]Entry, 0, len(results.Tests))
	for _, r := range results.Tests {
		entries = append(entries, NewEntry(r))
	}
	return NewDocument(c.runID, entries)
}

// WriteFile writes the current document to path, creating parent directories as needed.
func (c *Collector) WriteFile(path string, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create report file: %w", err)
	}
	writeErr := Write(f, c.Document(), format)
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("unable to write report %s: %w", path, writeErr)
	}
	return closeErr
}
