// Package storage persists completed pipeline runs for diagnostic review.
// Intermediate stage data is request-scoped and never stored; only the
// finished result record lands here.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a run record does not exist.
var ErrNotFound = errors.New("run not found")

// RunRecord is one completed (or failed) pipeline run.
type RunRecord struct {
	ID        string          `db:"id" json:"id"`
	Symptoms  string          `db:"symptoms" json:"symptoms"`
	Status    string          `db:"status" json:"status"`
	Result    json.RawMessage `db:"result" json:"result,omitempty"`
	ElapsedMS int64           `db:"elapsed_ms" json:"elapsedMs"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// ListOptions controls pagination for run listings.
type ListOptions struct {
	Limit  int
	Offset int
}

// RunStore stores and retrieves run records.
type RunStore interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*RunRecord, error)
	Close() error
}
