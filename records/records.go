package records

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DefaultSoftCheckMessage is used when a soft assertion is made without a message.
const DefaultSoftCheckMessage = "Soft assertion"

// Kind identifies one of the three record types.
type Kind string

const (
	KindStep      Kind = "step"
	KindSoftCheck Kind = "soft_check"
	KindData      Kind = "data"
)

// Outcome is the result of a step.
type Outcome string

const (
	OutcomeOpen   Outcome = "open"
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Record is implemented by StepRecord, SoftCheckRecord and DataRecord.
type Record interface {
	Kind() Kind
	// ToValue converts the record to its report form. Times are expressed as offsets in
	// seconds from origin.
	ToValue(origin time.Time) ldvalue.Value
}

// StepRecord is a named, timed phase of a test. It is created open and closed exactly once by
// Finish or FinishAt.
type StepRecord struct {
	name         string
	start        time.Time
	end          time.Time
	outcome      Outcome
	errorSummary string
	lock         sync.Mutex
}

// NewStepRecord creates an open step that started at the given time.
func NewStepRecord(name string, start time.Time) *StepRecord {
	return &StepRecord{name: name, start: start, outcome: OutcomeOpen}
}

func (s *StepRecord) Kind() Kind { return KindStep }

func (s *StepRecord) Name() string { return s.name }

func (s *StepRecord) Start() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.start
}

// End returns the time the step was closed, or the zero time if it is still open.
func (s *StepRecord) End() time.Time {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.end
}

func (s *StepRecord) Outcome() Outcome {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.outcome
}

// ErrorSummary describes the failure that ended the step, if any.
func (s *StepRecord) ErrorSummary() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.errorSummary
}

// IsOpen is true until the step has been finished.
func (s *StepRecord) IsOpen() bool {
	return s.Outcome() == OutcomeOpen
}

// Duration is the elapsed time between start and end, or zero if the step is open.
func (s *StepRecord) Duration() time.Duration {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.outcome == OutcomeOpen {
		return 0
	}
	return s.end.Sub(s.start)
}

// Finish closes the step at the current time. A non-nil err marks it failed.
func (s *StepRecord) Finish(err error) {
	s.FinishAt(time.Now(), err)
}

// FinishAt closes the step at the given time. It is not guarded against being called twice.
func (s *StepRecord) FinishAt(end time.Time, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if end.Before(s.start) {
		end = s.start
	}
	s.end = end
	if err != nil {
		s.outcome = OutcomeFailed
		s.errorSummary = summarize(err)
	} else {
		s.outcome = OutcomeOK
		s.errorSummary = ""
	}
}

// Snapshot returns a detached copy of the step in its current state. Finishing the original
// afterwards does not change the copy.
func (s *StepRecord) Snapshot() *StepRecord {
	s.lock.Lock()
	defer s.lock.Unlock()
	return &StepRecord{
		name:         s.name,
		start:        s.start,
		end:          s.end,
		outcome:      s.outcome,
		errorSummary: s.errorSummary,
	}
}

func (s *StepRecord) ToValue(origin time.Time) ldvalue.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	b := ldvalue.ObjectBuild().
		Set("kind", ldvalue.String(string(KindStep))).
		Set("name", ldvalue.String(s.name)).
		Set("start", seconds(s.start.Sub(origin))).
		Set("outcome", ldvalue.String(string(s.outcome)))
	if s.outcome == OutcomeOpen {
		b.Set("duration", ldvalue.Null())
	} else {
		b.Set("duration", seconds(s.end.Sub(s.start)))
	}
	if s.errorSummary != "" {
		b.Set("error", ldvalue.String(s.errorSummary))
	}
	return b.Build()
}

// SoftCheckRecord is the result of one soft assertion.
type SoftCheckRecord struct {
	Message string
	Passed  bool
	Details []string
}

// NewSoftCheckRecord applies the default message when message is empty.
func NewSoftCheckRecord(message string, passed bool, details []string) SoftCheckRecord {
	if message == "" {
		message = DefaultSoftCheckMessage
	}
	return SoftCheckRecord{
		Message: message,
		Passed:  passed,
		Details: append([]string(nil), details...),
	}
}

func (c SoftCheckRecord) Kind() Kind { return KindSoftCheck }

func (c SoftCheckRecord) ToValue(time.Time) ldvalue.Value {
	b := ldvalue.ObjectBuild().
		Set("kind", ldvalue.String(string(KindSoftCheck))).
		Set("message", ldvalue.String(c.Message)).
		Set("passed", ldvalue.Bool(c.Passed))
	switch len(c.Details) {
	case 0:
	case 1:
		b.Set("details", ldvalue.String(c.Details[0]))
	default:
		arr := ldvalue.ArrayBuild()
		for _, d := range c.Details {
			arr.Add(ldvalue.String(d))
		}
		b.Set("details", arr.Build())
	}
	return b.Build()
}

// DataRecord is an arbitrary JSON value attached to a timeline under a display label.
type DataRecord struct {
	Label   string
	Payload ldvalue.Value
}

func (d DataRecord) Kind() Kind { return KindData }

func (d DataRecord) ToValue(time.Time) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("kind", ldvalue.String(string(KindData))).
		Set("label", ldvalue.String(d.Label)).
		Set("payload", d.Payload).
		Build()
}

// PayloadOf converts any JSON-marshalable value to an ldvalue.Value. A value that cannot be
// marshaled is kept as its %+v string.
func PayloadOf(v interface{}) ldvalue.Value {
	switch p := v.(type) {
	case nil:
		return ldvalue.Null()
	case ldvalue.Value:
		return p
	case json.RawMessage:
		return parseOrString(p)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ldvalue.String(fmt.Sprintf("%+v", v))
	}
	return parseOrString(data)
}

func parseOrString(data []byte) ldvalue.Value {
	var value ldvalue.Value
	if err := json.Unmarshal(data, &value); err != nil {
		return ldvalue.String(string(data))
	}
	return value
}

func seconds(d time.Duration) ldvalue.Value {
	return ldvalue.Float64(d.Seconds())
}

func summarize(err error) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			summary = fmt.Sprintf("%T (error message unavailable: %v)", err, r)
		}
	}()
	summary = err.Error()
	if summary == "" {
		summary = fmt.Sprintf("%T", err)
	}
	return summary
}
