package framework

// TestLogger receives notifications as tracked tests start and finish. Implementations must
// be safe for concurrent use, since parallel tests finish on their own goroutines.
type TestLogger interface {
	TestStarted(id TestID)
	TestFinished(result TestResult)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)      {}
func (n nullTestLogger) TestFinished(TestResult) {}

// NullTestLogger returns a TestLogger that discards everything.
func NullTestLogger() TestLogger { return nullTestLogger{} }

type multiTestLogger []TestLogger

func (m multiTestLogger) TestStarted(id TestID) {
	for _, l := range m {
		l.TestStarted(id)
	}
}

func (m multiTestLogger) TestFinished(result TestResult) {
	for _, l := range m {
		l.TestFinished(result)
	}
}

// MultiTestLogger forwards every notification to each non-nil logger in order.
func MultiTestLogger(loggers ...TestLogger) TestLogger {
	var m multiTestLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	if len(m) == 0 {
		return NullTestLogger()
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
