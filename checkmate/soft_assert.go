package checkmate

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/launchdarkly/go-test-timeline/introspect"
	"github.com/launchdarkly/go-test-timeline/records"
)

// AssertOption customizes a soft assertion.
type AssertOption func(*assertion)

type assertion struct {
	message    string
	details    []string
	hasDetails bool
	vars       introspect.Bindings
}

// Message sets the headline of the soft check. The default is "Soft assertion".
func Message(msg string) AssertOption {
	return func(a *assertion) { a.message = msg }
}

// Messagef is like Message with fmt.Sprintf formatting.
func Messagef(format string, args ...interface{}) AssertOption {
	return func(a *assertion) { a.message = fmt.Sprintf(format, args...) }
}

// Details supplies the detail lines, which turns off the description of the condition.
func Details(lines ...string) AssertOption {
	return func(a *assertion) {
		a.details = append(a.details, lines...)
		a.hasDetails = true
	}
}

// With makes a value available by name when the condition is described.
func With(name string, value interface{}) AssertOption {
	return func(a *assertion) {
		if a.vars == nil {
			a.vars = introspect.Bindings{}
		}
		a.vars[name] = value
	}
}

// Vars is like With for several names at once.
func Vars(vars map[string]interface{}) AssertOption {
	return func(a *assertion) {
		if a.vars == nil {
			a.vars = introspect.Bindings{}
		}
		for k, v := range vars {
			a.vars[k] = v
		}
	}
}

// SoftAssert records whether condition holds without stopping the test, and returns the
// result. A failed soft assertion fails the test when it ends, if the test is tracked.
//
// Unless Details is given, the detail line describes the condition as written at the call
// site, for example "len(items) > 0 (0 > 0)" when items is supplied with With.
func SoftAssert(t TestingT, condition interface{}, opts ...AssertOption) bool {
	return defaultRecorder.softAssert(t, condition, opts)
}

func (r *Recorder) SoftAssert(t TestingT, condition interface{}, opts ...AssertOption) bool {
	return r.softAssert(t, condition, opts)
}

// softAssert must be called directly by the exported SoftAssert functions, since it describes
// the call two frames up.
func (r *Recorder) softAssert(t TestingT, condition interface{}, opts []AssertOption) (passed bool) {
	passed = Truthy(condition)
	defer func() {
		if p := recover(); p != nil {
			r.debug().Printf("Soft assertion could not be recorded: %v", p)
		}
	}()

	var a assertion
	for _, o := range opts {
		if o != nil {
			o(&a)
		}
	}
	details := a.details
	if !a.hasDetails {
		var site introspect.Site
		if _, file, line, ok := runtime.Caller(2); ok {
			site = introspect.Site{File: file, Line: line, Func: "SoftAssert", ArgIndex: 1}
		}
		desc := introspect.Describe(site, a.vars, passed)
		if desc.Tier != introspect.Introspected {
			r.debug().Printf("Soft assertion at %s:%d described from %s", site.File, site.Line, desc.Tier)
		}
		details = []string{desc.Text}
	}
	r.registry.AddSoftCheckRecord(identify(t), a.message, passed, details)
	return passed
}

// Truthy converts a condition to a boolean: false, nil, zero numbers, empty strings and empty
// collections, and nil pointers, interfaces, funcs and channels are false. Anything else is
// true.
func Truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Array:
		return rv.Len() != 0
	case reflect.Slice, reflect.Map, reflect.Chan:
		return !rv.IsNil() && rv.Len() != 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.UnsafePointer:
		return !rv.IsNil()
	default:
		return true
	}
}

// AddDataReport attaches payload to the test's timeline under label. The payload is converted
// to a JSON value; see records.PayloadOf.
func AddDataReport(t TestingT, payload interface{}, label string) records.DataRecord {
	return defaultRecorder.AddDataReport(t, payload, label)
}

func (r *Recorder) AddDataReport(t TestingT, payload interface{}, label string) records.DataRecord {
	return r.registry.AddDataRecord(identify(t), label, records.PayloadOf(payload))
}
