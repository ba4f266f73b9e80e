package checkmate

import (
	"time"

	"github.com/launchdarkly/go-test-timeline/framework"
)

// TB is the part of testing.TB that Track needs.
type TB interface {
	TestingT
	Helper()
	Cleanup(func())
	Errorf(format string, args ...interface{})
	Failed() bool
	Skipped() bool
}

// Track begins a timeline for t on the default recorder. See Recorder.Track.
func Track(t TB) {
	t.Helper()
	defaultRecorder.Track(t)
}

// Track begins a timeline for t, replacing any records already kept under its name. When the
// test and its subtests have finished, the timeline is drained, the test is failed with a
// SoftAssertionError if any soft check failed, and the result goes to the recorder's
// TestLogger. A skipped test is not failed.
func (r *Recorder) Track(t TB) {
	t.Helper()
	id := identify(t)
	if id.IsZero() {
		r.debug().Printf("Not tracking a test with no name")
		return
	}
	started := time.Now()
	r.registry.Begin(id)
	r.TestLogger().TestStarted(id)

	t.Cleanup(func() {
		timeline := r.registry.Drain(id)
		result := framework.TestResult{
			TestID:   id,
			Duration: time.Since(started),
			Timeline: timeline,
			Skipped:  t.Skipped(),
		}
		if failures := timeline.SoftFailures(); len(failures) > 0 && !result.Skipped {
			err := framework.SoftAssertionError{ID: id, Failures: failures}
			t.Errorf("%s", err)
			result.Errors = append(result.Errors, err)
		}
		result.Failed = t.Failed()
		r.TestLogger().TestFinished(result)
	})
}
