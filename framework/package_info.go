// Package framework contains the types shared by every layer of the timeline tooling: test
// identifiers, per-test results, the TestLogger hook that receives results as tests finish,
// and a minimal Logger abstraction for debug output.
//
// The general model is:
//
// 1. A test is identified by a TestID derived from the name the host runner gives it, such as
// the value of testing.T.Name().
//
// 2. While the test runs, steps, soft checks and data attachments are appended to a timeline
// kept by the registry package under that TestID.
//
// 3. When the test ends its timeline is drained into a TestResult and passed to a TestLogger,
// which may print it, collect it into a report, or both.
package framework
