package records

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Timeline is the ordered sequence of records produced by one test.
type Timeline struct {
	Started time.Time
	Records []Record
}

func (t Timeline) Len() int { return len(t.Records) }

// IsEmpty is true for a timeline with no records, including one that was never begun.
func (t Timeline) IsEmpty() bool { return len(t.Records) == 0 }

// Steps returns the step records in order.
func (t Timeline) Steps() []*StepRecord {
	var ret []*StepRecord
	for _, r := range t.Records {
		if s, ok := r.(*StepRecord); ok {
			ret = append(ret, s)
		}
	}
	return ret
}

// SoftChecks returns all soft check records in order.
func (t Timeline) SoftChecks() []SoftCheckRecord {
	var ret []SoftCheckRecord
	for _, r := range t.Records {
		if c, ok := r.(SoftCheckRecord); ok {
			ret = append(ret, c)
		}
	}
	return ret
}

// SoftFailures returns the soft checks that did not pass.
func (t Timeline) SoftFailures() []SoftCheckRecord {
	var ret []SoftCheckRecord
	for _, c := range t.SoftChecks() {
		if !c.Passed {
			ret = append(ret, c)
		}
	}
	return ret
}

// Data returns the data records in order.
func (t Timeline) Data() []DataRecord {
	var ret []DataRecord
	for _, r := range t.Records {
		if d, ok := r.(DataRecord); ok {
			ret = append(ret, d)
		}
	}
	return ret
}

// ToValue serializes every record with offsets relative to the timeline start.
func (t Timeline) ToValue() ldvalue.Value {
	arr := ldvalue.ArrayBuild()
	for _, r := range t.Records {
		arr.Add(r.ToValue(t.Started))
	}
	return arr.Build()
}

// Values is like ToValue but returns the serialized records as a slice.
func (t Timeline) Values() []ldvalue.Value {
	ret := make([]ldvalue.Value, 0, len(t.Records))
	for _, r := range t.Records {
		ret = append(ret, r.ToValue(t.Started))
	}
	return ret
}
