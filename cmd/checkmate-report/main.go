// Command checkmate-report prints a test timeline report written by checkmate.Main.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/launchdarkly/go-test-timeline/framework"
	"github.com/launchdarkly/go-test-timeline/report"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var params commandParams
	if !params.Read(args, stderr) {
		return 2
	}
	if params.noColor {
		color.NoColor = true
	}

	doc, err := readDocument(params.input, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Unable to read report: %s\n", err)
		return 2
	}
	if params.filters.IsDefined() {
		doc = doc.Filter(params.filters.AsFilter)
	}

	if params.format == report.FormatText {
		framework.PrintFilterDescription(stdout, params.filters)
		report.PrintDocument(stdout, doc, report.PrintOptions{Timeline: params.verbose, Payloads: params.payloads})
	} else if err := report.Write(stdout, doc, params.format); err != nil {
		fmt.Fprintf(stderr, "Unable to write report: %s\n", err)
		return 2
	}

	if params.rerun {
		if cmd := report.RerunCommand(doc.Failures(), params.packages); cmd != "" {
			fmt.Fprintf(stderr, "\nTo rerun the failed tests:\n  %s\n", cmd)
		}
	}
	if !doc.OK() {
		return 1
	}
	return 0
}

func readDocument(path string, stdin io.Reader) (report.Document, error) {
	if path == "-" {
		return report.Read(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return report.Document{}, err
	}
	defer f.Close()
	return report.Read(f)
}
