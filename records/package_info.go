// Package records defines the events that make up a test timeline: steps, soft checks and
// data attachments, plus their conversion to a JSON-shaped form for reports.
//
// Records carry no knowledge of which test they belong to; that association is kept by the
// registry package.
package records
