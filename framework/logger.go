package framework

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the debug output abstraction used throughout this module. *log.Logger satisfies it.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

// LoggerOrNull returns l, or a logger that discards output if l is nil.
func LoggerOrNull(l Logger) Logger {
	if l == nil {
		return nullLogger{}
	}
	return l
}

type writerLogger struct {
	dest   io.Writer
	prefix string
	lock   sync.Mutex
}

// NewWriterLogger returns a Logger that writes timestamped lines to dest.
func NewWriterLogger(dest io.Writer, prefix string) Logger {
	return &writerLogger{dest: dest, prefix: prefix}
}

func (w *writerLogger) Printf(message string, args ...interface{}) {
	w.lock.Lock()
	fmt.Fprintf(w.dest, "%s[%s] %s\n", w.prefix, time.Now().Format(timestampFormat), fmt.Sprintf(message, args...))
	w.lock.Unlock()
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps every message in memory, mainly so tests can inspect debug output.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns just the message text of the captured output.
func (output CapturedOutput) Messages() []string {
	ret := make([]string, 0, len(output))
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
