// Package store caches resolved run records between pipeline executions so a
// restarted pipeline does not re-query the file-report service for runs it
// already resolved.
package store

import (
	"context"

	"github.com/me/seqferry/internal/record"
)

// RecordCache defines the run-record cache.
type RecordCache interface {
	// Get returns the cached record for a run accession. The second return
	// is false on a cache miss.
	Get(ctx context.Context, runAccession string) (*record.RunRecord, bool, error)

	// Put stores or replaces the record for its run accession.
	Put(ctx context.Context, rec record.RunRecord) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
