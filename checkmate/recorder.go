package checkmate

import (
	"reflect"
	"sync"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/registry"
)

// TestingT is the part of *testing.T, *testing.B and *testing.F that identifies a test.
type TestingT interface {
	Name() string
}

// Recorder attributes records to tests through its registry. It is safe for concurrent use.
type Recorder struct {
	registry   *registry.Registry
	logger     framework.Logger
	testLogger framework.TestLogger
	lock       sync.RWMutex
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithRegistry sets the registry; by default a new one is created.
func WithRegistry(r *registry.Registry) Option {
	return func(rec *Recorder) { rec.registry = r }
}

// WithLogger sets the logger for the recorder's own debug output.
func WithLogger(logger framework.Logger) Option {
	return func(rec *Recorder) { rec.logger = framework.LoggerOrNull(logger) }
}

// WithTestLogger sets the sink for finished tracked tests.
func WithTestLogger(l framework.TestLogger) Option {
	return func(rec *Recorder) { rec.testLogger = l }
}

func New(opts ...Option) *Recorder {
	r := &Recorder{
		logger:     framework.NullLogger(),
		testLogger: framework.NullTestLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.registry == nil {
		r.registry = registry.New(registry.WithLogger(delegatingLogger{r}))
	}
	if r.testLogger == nil {
		r.testLogger = framework.NullTestLogger()
	}
	return r
}

var defaultRecorder = New()

// Default returns the recorder used by the package-level functions.
func Default() *Recorder { return defaultRecorder }

func (r *Recorder) Registry() *registry.Registry { return r.registry }

func (r *Recorder) TestLogger() framework.TestLogger {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.testLogger
}

// SetTestLogger replaces the sink for finished tests. Tests already running report to the
// new sink when they finish.
func (r *Recorder) SetTestLogger(l framework.TestLogger) {
	if l == nil {
		l = framework.NullTestLogger()
	}
	r.lock.Lock()
	r.testLogger = l
	r.lock.Unlock()
}

func (r *Recorder) debug() framework.Logger {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.logger
}

func (r *Recorder) setLogger(l framework.Logger) {
	r.lock.Lock()
	r.logger = framework.LoggerOrNull(l)
	r.lock.Unlock()
}

// delegatingLogger lets the registry follow later changes to the recorder's logger.
type delegatingLogger struct {
	r *Recorder
}

func (d delegatingLogger) Printf(message string, args ...interface{}) {
	d.r.debug().Printf(message, args...)
}

// identify returns the TestID of t; nil, including a nil pointer, means no test.
func identify(t TestingT) (id framework.TestID) {
	if t == nil {
		return framework.TestID{}
	}
	if v := reflect.ValueOf(t); v.Kind() == reflect.Ptr && v.IsNil() {
		return framework.TestID{}
	}
	defer func() {
		if recover() != nil {
			id = framework.TestID{}
		}
	}()
	return framework.NewTestID(t.Name())
}

func failed(t TestingT) (ret bool) {
	f, ok := t.(interface{ Failed() bool })
	if !ok || identify(t).IsZero() {
		return false
	}
	defer func() {
		if recover() != nil {
			ret = false
		}
	}()
	return f.Failed()
}

func skipped(t TestingT) (ret bool) {
	s, ok := t.(interface{ Skipped() bool })
	if !ok || identify(t).IsZero() {
		return false
	}
	defer func() {
		if recover() != nil {
			ret = false
		}
	}()
	return s.Skipped()
}
