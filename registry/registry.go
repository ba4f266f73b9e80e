// Package registry keeps one timeline per running test.
//
// Every operation takes the identity of the test it applies to, so attribution never depends
// on which test ran last. A timeline exists from Begin until Drain; records added for an
// identity that has no timeline are not kept.
package registry

import (
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/records"
)

// Registry maps test identities to their timelines. The zero value is not usable; call New.
type Registry struct {
	timelines map[string]*records.Timeline
	logger    framework.Logger
	now       func() time.Time
	lock      sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger that receives debug messages about records made outside of a
// tracked test.
func WithLogger(logger framework.Logger) Option {
	return func(r *Registry) { r.logger = framework.LoggerOrNull(logger) }
}

// WithClock replaces time.Now as the source of step timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		timelines: make(map[string]*records.Timeline),
		logger:    framework.NullLogger(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Begin establishes an empty timeline for the test, replacing any existing one.
func (r *Registry) Begin(id framework.TestID) {
	started := r.now()
	r.lock.Lock()
	r.timelines[id.String()] = &records.Timeline{Started: started}
	r.lock.Unlock()
}

// Now reads the registry's clock. Steps are closed with it so that start and end come from the
// same source.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Tracked is true between Begin and Drain for the test.
func (r *Registry) Tracked(id framework.TestID) bool {
	r.lock.Lock()
	_, ok := r.timelines[id.String()]
	r.lock.Unlock()
	return ok
}

// Drain returns the test's timeline and forgets it. A test with no timeline, including one
// that was already drained, yields an empty Timeline. Steps are copied in their state at drain
// time, so a step still open then stays open in the returned timeline.
func (r *Registry) Drain(id framework.TestID) records.Timeline {
	key := id.String()
	r.lock.Lock()
	tl, ok := r.timelines[key]
	delete(r.timelines, key)
	r.lock.Unlock()
	if !ok {
		return records.Timeline{}
	}
	drained := records.Timeline{
		Started: tl.Started,
		Records: make([]records.Record, 0, len(tl.Records)),
	}
	for _, rec := range tl.Records {
		if step, ok := rec.(*records.StepRecord); ok {
			rec = step.Snapshot()
		}
		drained.Records = append(drained.Records, rec)
	}
	return drained
}

// AddStepRecord appends an open step starting now. It returns nil if the test is not tracked.
func (r *Registry) AddStepRecord(id framework.TestID, name string) *records.StepRecord {
	step := records.NewStepRecord(name, r.now())
	if !r.append(id, step) {
		return nil
	}
	return step
}

// AddSoftCheckRecord appends a soft check. The record is returned even if the test is not
// tracked.
func (r *Registry) AddSoftCheckRecord(
	id framework.TestID,
	message string,
	passed bool,
	details []string,
) records.SoftCheckRecord {
	c := records.NewSoftCheckRecord(message, passed, details)
	r.append(id, c)
	return c
}

// AddDataRecord appends a data attachment. The record is returned even if the test is not
// tracked.
func (r *Registry) AddDataRecord(id framework.TestID, label string, payload ldvalue.Value) records.DataRecord {
	d := records.DataRecord{Label: label, Payload: payload}
	r.append(id, d)
	return d
}

func (r *Registry) append(id framework.TestID, rec records.Record) bool {
	r.lock.Lock()
	tl, ok := r.timelines[id.String()]
	if ok {
		tl.Records = append(tl.Records, rec)
	}
	r.lock.Unlock()
	if !ok {
		r.logger.Printf("Ignoring %s record: no timeline for test %q", rec.Kind(), id)
	}
	return ok
}
