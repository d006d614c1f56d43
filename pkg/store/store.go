// Package store archives extracted dependency tree snapshots.
//
// One [Record] is written per snapshot, tagged with the run id and the trace
// it came from, so the trees of several runs can be compared later. Two
// backends exist:
//   - [MongoStore]: MongoDB, used by the CLI's --archive flag
//   - [MemoryStore]: in-process, for tests and dry runs
package store

import (
	"context"
	"time"

	"github.com/matzehuels/qlogtree/pkg/deptree"
)

// Record is the archived form of one snapshot.
type Record struct {
	RunID      string         `json:"run_id" bson:"run_id"`
	Trace      string         `json:"trace" bson:"trace"`
	Index      int            `json:"index" bson:"index"`
	Time       int64          `json:"time" bson:"time"`
	Trigger    string         `json:"trigger" bson:"trigger"`
	Tree       *deptree.Node  `json:"tree" bson:"tree"`
	Edges      []deptree.Edge `json:"edges" bson:"edges"`
	RequestIDs []string       `json:"request_ids" bson:"request_ids"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
}

// NewRecord builds the record for one snapshot of a run.
func NewRecord(runID, trace string, s deptree.Snapshot, f deptree.Flattened) Record {
	return Record{
		RunID:      runID,
		Trace:      trace,
		Index:      s.Index,
		Time:       s.Time,
		Trigger:    s.Trigger,
		Tree:       s.Root,
		Edges:      f.Edges,
		RequestIDs: f.RequestIDs,
		CreatedAt:  time.Now().UTC(),
	}
}

// Store persists snapshot records.
type Store interface {
	// Save writes all records of a run. An empty slice is a no-op.
	Save(ctx context.Context, records []Record) error

	// Run returns the records of a run ordered by snapshot index.
	// An unknown run yields an empty slice.
	Run(ctx context.Context, runID string) ([]Record, error)

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}
