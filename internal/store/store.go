// Package store persists parsed records and the sync-run ledger. Any engine
// with keyed upsert and a prefix-searchable index on the normalized name
// satisfies the contract; Postgres, SQLite, and an in-memory map are
// provided.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/corpsearch-cli/internal/record"
)

// StoredRecord is a parsed record plus its normalized comparison key and
// the time it was last written. Keyed by DocumentNumber within its kind;
// records are only ever created or overwritten, never deleted, because the
// extracts are snapshots rather than deletion feeds.
type StoredRecord struct {
	record.Record
	NormalizedKey string    `json:"normalized_key"`
	LastUpdated   time.Time `json:"last_updated"`
}

// RunType distinguishes a full quarterly snapshot from a daily delta.
type RunType string

const (
	RunFull        RunType = "full"
	RunIncremental RunType = "incremental"
)

// RunStatus is the lifecycle state of a sync run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// RunStats are the cumulative counters for one sync run. Processed counts
// every source line; Upserted counts records written; Errors counts lines
// skipped for parse or store failures.
type RunStats struct {
	Processed int64 `json:"processed"`
	Upserted  int64 `json:"upserted"`
	Errors    int64 `json:"errors"`
}

// SyncRun is one ledger row: a single pipeline execution over one source
// file. The search path never mutates it.
type SyncRun struct {
	ID          uuid.UUID   `json:"id"`
	Kind        record.Kind `json:"kind"`
	RunType     RunType     `json:"run_type"`
	Status      RunStatus   `json:"status"`
	RunStats    `json:"stats"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Store is the persistence contract shared by all drivers.
type Store interface {
	// UpsertRecords writes a batch keyed by document number: insert when
	// absent, overwrite all fields and refresh LastUpdated when present.
	// Safe to repeat with identical input and to call concurrently for
	// disjoint keys; same-key races resolve last-writer-wins.
	UpsertRecords(ctx context.Context, kind record.Kind, recs []StoredRecord) (int64, error)

	// FindByNormalizedPrefix returns up to limit records whose normalized
	// name starts with key. Backed by an index, not a scan; ordering at
	// this layer is unspecified (the search service ranks).
	FindByNormalizedPrefix(ctx context.Context, kind record.Kind, key string, limit int) ([]StoredRecord, error)

	// Sync-run ledger.
	CreateSyncRun(ctx context.Context, kind record.Kind, runType RunType) (*SyncRun, error)
	CompleteSyncRun(ctx context.Context, id uuid.UUID, stats RunStats) error
	FailSyncRun(ctx context.Context, id uuid.UUID, stats RunStats, reason string) error
	GetSyncRun(ctx context.Context, id uuid.UUID) (*SyncRun, error)
	LastSyncRun(ctx context.Context, kind record.Kind) (*SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
