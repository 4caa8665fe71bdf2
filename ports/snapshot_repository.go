package ports

import (
	"context"

	"goprove/domain/core"
	"goprove/domain/dataset"
)

// SnapshotRepository stores dataset snapshot metadata. Snapshots are
// created whenever requested and never mutated; many may exist over
// time as upstream data evolves.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *dataset.Snapshot) error
	GetSnapshot(ctx context.Context, id core.SnapshotID) (*dataset.Snapshot, error)
	// GetLatestByDatasetID returns the most recent snapshot carrying
	// the given dataset ID.
	GetLatestByDatasetID(ctx context.Context, datasetID core.DatasetID) (*dataset.Snapshot, error)
}
