// Package store persists run records (builds and link checks) so past runs
// can be inspected and compared.
package store

import (
	"context"
	"time"
)

// Record kinds.
const (
	KindBuild     = "build"
	KindLinkCheck = "linkcheck"
)

// Record is one persisted run outcome.
type Record struct {
	ID        int64
	RunID     string
	Kind      string
	Timestamp time.Time
	Payload   []byte // JSON: the build manifest or check report
	Metadata  map[string]string
}

// Store persists and retrieves run records.
type Store interface {
	// Append adds a record for a run.
	Append(ctx context.Context, runID, kind string, payload []byte, metadata map[string]string) error

	// ByRun retrieves all records for one run.
	ByRun(ctx context.Context, runID string) ([]Record, error)

	// Range retrieves records within a time range.
	Range(ctx context.Context, start, end time.Time) ([]Record, error)

	// Close releases resources.
	Close() error
}
