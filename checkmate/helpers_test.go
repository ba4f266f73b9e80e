package checkmate

import (
	"fmt"
	"sync"

	"github.com/fatih/color"

	"github.com/launchdarkly/go-test-timeline/framework"
)

func init() {
	color.NoColor = true
}

type fakeT struct {
	name     string
	failed   bool
	skipped  bool
	errors   []string
	cleanups []func()
	lock     sync.Mutex
}

func newFakeT(name string) *fakeT { return &fakeT{name: name} }

func (f *fakeT) Name() string { return f.name }

func (f *fakeT) Helper() {}

func (f *fakeT) Cleanup(fn func()) {
	f.lock.Lock()
	f.cleanups = append(f.cleanups, fn)
	f.lock.Unlock()
}

func (f *fakeT) Errorf(format string, args ...interface{}) {
	f.lock.Lock()
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
	f.failed = true
	f.lock.Unlock()
}

func (f *fakeT) Failed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.failed
}

func (f *fakeT) Skipped() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.skipped
}

func (f *fakeT) fail() {
	f.lock.Lock()
	f.failed = true
	f.lock.Unlock()
}

func (f *fakeT) skip() {
	f.lock.Lock()
	f.skipped = true
	f.lock.Unlock()
}

// finish runs the cleanups the way the testing package does when a test ends.
func (f *fakeT) finish() {
	f.lock.Lock()
	cleanups := f.cleanups
	f.cleanups = nil
	f.lock.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (f *fakeT) Errors() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.errors...)
}

type resultSink struct {
	started []framework.TestID
	results []framework.TestResult
	lock    sync.Mutex
}

func (s *resultSink) TestStarted(id framework.TestID) {
	s.lock.Lock()
	s.started = append(s.started, id)
	s.lock.Unlock()
}

func (s *resultSink) TestFinished(result framework.TestResult) {
	s.lock.Lock()
	s.results = append(s.results, result)
	s.lock.Unlock()
}

func (s *resultSink) Results() []framework.TestResult {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]framework.TestResult(nil), s.results...)
}

func (s *resultSink) byName() map[string]framework.TestResult {
	ret := map[string]framework.TestResult{}
	for _, r := range s.Results() {
		ret[r.TestID.String()] = r
	}
	return ret
}

// trackedRun tracks a fake test, runs body and returns the finished result.
func trackedRun(name string, body func(rec *Recorder, t *fakeT)) (framework.TestResult, *fakeT) {
	sink := &resultSink{}
	rec := New(WithTestLogger(sink))
	ft := newFakeT(name)
	rec.Track(ft)
	body(rec, ft)
	ft.finish()
	results := sink.Results()
	if len(results) != 1 {
		panic(fmt.Sprintf("expected 1 result, got %d", len(results)))
	}
	return results[0], ft
}

type fakeM func() int

func (m fakeM) Run() int { return m() }
