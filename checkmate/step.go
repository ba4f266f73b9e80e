package checkmate

import (
	"context"
	"errors"
	"fmt"

	"github.com/launchdarkly/go-test-timeline/records"
)

// ErrTestFailed is recorded as the error of a step during which the test was marked failed,
// for instance by a require assertion that stopped the test's goroutine.
var ErrTestFailed = errors.New("test failed during step")

// ErrStepInterrupted is recorded for a step whose body exited through runtime.Goexit while the
// test was neither failed nor skipped.
var ErrStepInterrupted = errors.New("step interrupted by runtime.Goexit")

// PanicError is recorded as the error of a step whose body panicked. The panic itself is
// always resumed with the original value.
type PanicError struct {
	Value interface{}
}

func (p PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// ScopedStep is a named phase of a test. Create one with Step, then either use one of the
// callback forms or bracket the code with Enter and a deferred End:
//
//	s := checkmate.Step(t, "log in").Enter()
//	defer s.End(&err)
type ScopedStep struct {
	recorder     *Recorder
	t            TestingT
	name         string
	record       *records.StepRecord
	failedBefore bool
	entered      bool
	closed       bool
}

// Step returns a step for t on the default recorder. Nothing is recorded until it is entered.
func Step(t TestingT, name string) *ScopedStep {
	return defaultRecorder.Step(t, name)
}

func (r *Recorder) Step(t TestingT, name string) *ScopedStep {
	return &ScopedStep{recorder: r, t: t, name: name}
}

func (s *ScopedStep) Name() string { return s.name }

// Record returns the step's record, or nil if the step was not entered or its test is not
// tracked.
func (s *ScopedStep) Record() *records.StepRecord { return s.record }

// Enter appends an open step record to the test's timeline, starting now.
func (s *ScopedStep) Enter() *ScopedStep {
	if s.entered {
		s.recorder.debug().Printf("Step %q entered more than once", s.name)
		return s
	}
	s.entered = true
	s.failedBefore = failed(s.t)
	s.record = s.recorder.registry.AddStepRecord(identify(s.t), s.name)
	return s
}

// End closes the step. It must be deferred directly so that it can observe a panic: the step
// is recorded as failed and the panic continues with the same value. Otherwise a non-nil *errp
// marks the step failed. errp may be nil.
func (s *ScopedStep) End(errp *error) {
	if r := recover(); r != nil {
		s.finish(PanicError{Value: r})
		panic(r)
	}
	var err error
	if errp != nil {
		err = *errp
	}
	s.finish(err)
}

// Run runs fn inside the step.
func (s *ScopedStep) Run(fn func()) {
	_ = s.RunE(func() error {
		fn()
		return nil
	})
}

// RunE runs fn inside the step and returns its error unchanged.
func (s *ScopedStep) RunE(fn func() error) (err error) {
	s.Enter()
	completed := false
	defer func() {
		if r := recover(); r != nil {
			s.finish(PanicError{Value: r})
			panic(r)
		}
		if !completed {
			s.finish(s.interrupted())
			return
		}
		s.finish(err)
	}()
	err = fn()
	completed = true
	return err
}

// RunContext is like RunE for bodies that block or wait on other goroutines. The body's
// returned error, including ctx.Err() after cancellation, marks the step failed.
func (s *ScopedStep) RunContext(ctx context.Context, fn func(context.Context) error) error {
	return s.RunE(func() error {
		return fn(ctx)
	})
}

func (s *ScopedStep) interrupted() error {
	switch {
	case failed(s.t):
		return ErrTestFailed
	case skipped(s.t):
		return nil
	default:
		return ErrStepInterrupted
	}
}

func (s *ScopedStep) finish(err error) {
	if s.closed {
		s.recorder.debug().Printf("Step %q ended more than once", s.name)
		return
	}
	s.closed = true
	if !s.entered {
		s.recorder.debug().Printf("Step %q ended without being entered", s.name)
		return
	}
	if s.record == nil {
		return
	}
	if err == nil && !s.failedBefore && failed(s.t) {
		err = ErrTestFailed
	}
	s.record.FinishAt(s.recorder.registry.Now(), err)
}
