package checkmate

import (
	"fmt"
	"io"
	"os"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/report"
)

// M is satisfied by *testing.M.
type M interface {
	Run() int
}

// Main runs the tests of a package with reporting configured from the CHECKMATE_*
// environment variables, and returns the exit code. Use it from TestMain.
func Main(m M) int {
	return defaultRecorder.Main(m)
}

func (r *Recorder) Main(m M) int {
	return r.runMain(m, os.Stdout, os.Stderr)
}

func (r *Recorder) runMain(m M, stdout, stderr io.Writer) int {
	config, err := report.ConfigFromEnv()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if config.Debug {
		previousLogger := r.debug()
		r.setLogger(framework.NewWriterLogger(stderr, "checkmate "))
		defer r.setLogger(previousLogger)
	}

	collector := report.NewCollector()
	previous := r.TestLogger()
	loggers := []framework.TestLogger{previous, collector}
	if config.Console != report.ConsoleOff {
		loggers = append(loggers, &report.ConsoleTestLogger{Out: stdout, Mode: config.Console})
	}
	r.SetTestLogger(framework.MultiTestLogger(loggers...))
	defer r.SetTestLogger(previous)

	code := m.Run()

	if config.Path != "" {
		if err := collector.WriteFile(config.Path, config.Format); err != nil {
			fmt.Fprintln(stderr, err)
			if code == 0 {
				code = 1
			}
		}
	}
	return code
}
