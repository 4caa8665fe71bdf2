package ports

import (
	"context"

	"goprove/domain/core"
	"goprove/domain/lineage"
)

// LineageWriter provides append-only write access to the lineage graph.
type LineageWriter interface {
	RecordArtifact(ctx context.Context, artifact *lineage.Artifact) (core.ArtifactID, error)
	RecordEdge(ctx context.Context, edge lineage.Edge) error
}

// LineageReader provides read-only traversal access.
type LineageReader interface {
	GetArtifact(ctx context.Context, id core.ArtifactID) (*lineage.Artifact, error)
	ListArtifactsByInstance(ctx context.Context, instanceID core.RunInstanceID) ([]*lineage.Artifact, error)
	// ListEdgesAmong returns every edge whose child or parent is in the
	// given artifact set.
	ListEdgesAmong(ctx context.Context, ids []core.ArtifactID) ([]lineage.Edge, error)
}

// LineagePort combines lineage write and read access.
type LineagePort interface {
	LineageWriter
	LineageReader
}
