// Package storage persists reminder records.
//
// Two drivers are available:
//   - "sqlite": durable single-file database (default)
//   - "memory": process-local map, for tests and ephemeral runs
//
// All drivers guarantee atomic single-record updates, so a MarkSent racing a
// ClearActive on the same row resolves to one deterministic winner and no
// partial record state is ever observable.
package storage
