package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/report"
)

type commandParams struct {
	input    string
	format   report.Format
	filters  framework.RegexFilters
	verbose  bool
	payloads bool
	rerun    bool
	packages string
	noColor  bool
}

func (c *commandParams) Read(args []string, stderr io.Writer) bool {
	var format string
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.input, "in", "", `report file to read ("-" for stdin)`)
	fs.StringVar(&format, "format", "text", "output format: text, json, or yaml")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to show")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to show")
	fs.BoolVar(&c.verbose, "verbose", false, "show the timeline of passing tests too")
	fs.BoolVar(&c.payloads, "payloads", false, "show data record payloads")
	fs.BoolVar(&c.rerun, "rerun", false, "print a go test command that reruns the failed tests")
	fs.StringVar(&c.packages, "packages", "./...", "package pattern for the -rerun command")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	if err := fs.Parse(args[1:]); err != nil {
		return false
	}
	if c.input == "" {
		fmt.Fprintln(stderr, "-in is required")
		fs.Usage()
		return false
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return false
	}
	c.format = f
	return true
}
