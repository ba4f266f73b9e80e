// Package report turns finished test results into a report document that can be written as
// JSON or YAML, read back, and printed to a console.
//
// A Collector is a framework.TestLogger, so it can be installed as the sink for a test run
// and asked for the complete Document at the end.
package report
