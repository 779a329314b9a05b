// Package store persists decoded records. Three backends share one
// interface: PostgreSQL for shared archives, pebble for single-machine
// embedded use, and an in-memory map for tests.
package store

import (
	"context"
	"math"
	"time"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// Meta ties a record to its provenance.
type Meta struct {
	FileID  int64
	EpochID int64 // 0 when the record is not correlated to an epoch
}

// Store is the persistence interface the import pipeline writes through.
type Store interface {
	// EnsureTables creates the backing tables or key namespaces.
	EnsureTables(ctx context.Context) error

	// RegisterFile records an input file by basename and returns its id.
	// A file already registered is reported with existed true so the
	// caller can skip reimporting it.
	RegisterFile(ctx context.Context, name string, started time.Time) (id int64, existed bool, err error)

	// FinishFile stamps the import completion time on a file row.
	FinishFile(ctx context.Context, id int64, finished time.Time) error

	// EnsureEpoch selects or creates the epoch row for a (week, itow)
	// pair and returns its id.
	EnsureEpoch(ctx context.Context, week int64, itow float64, utc time.Time) (int64, error)

	// SelectExistingID looks up a row id by exact column match.
	SelectExistingID(ctx context.Context, table string, match map[string]any) (int64, bool, error)

	// InsertRecord persists one decoded record and returns its id.
	InsertRecord(ctx context.Context, rec *schema.Record, meta Meta) (int64, error)

	// WithTransaction runs fn against a transactional view of the store.
	// fn returning an error rolls every write back.
	WithTransaction(ctx context.Context, fn func(Store) error) error

	Close() error
}

// sanitize rewrites values JSON cannot carry. Non-finite floats become nil,
// matching the absent-field convention of the decoders.
func sanitize(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = sanitize(e)
		}
		return out
	default:
		return v
	}
}

func sanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = sanitize(v)
	}
	return out
}

func sanitizeBlocks(blocks map[string][]any) map[string][]any {
	if len(blocks) == 0 {
		return nil
	}
	out := make(map[string][]any, len(blocks))
	for k, col := range blocks {
		out[k] = sanitize(col).([]any)
	}
	return out
}
