package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/lineage"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// LineageRepositoryImpl implements the lineage graph for PostgreSQL.
// Artifact and edge tables are append-only, enforced by triggers.
type LineageRepositoryImpl struct {
	db *sqlx.DB
}

// NewLineageRepository creates a new PostgreSQL lineage repository
func NewLineageRepository(db *sqlx.DB) ports.LineagePort {
	return &LineageRepositoryImpl{db: db}
}

// RecordArtifact appends one artifact row.
func (r *LineageRepositoryImpl) RecordArtifact(ctx context.Context, artifact *lineage.Artifact) (core.ArtifactID, error) {
	if err := artifact.Validate(); err != nil {
		return "", err
	}
	versionsJSON, err := json.Marshal(artifact.ComponentVersions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal component versions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO artifacts (
			artifact_id, run_instance_id, run_key, dataset_id,
			artifact_type, relative_path, content_hash, component_versions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		artifact.ID, artifact.RunInstanceID, artifact.RunKey, artifact.DatasetID,
		artifact.Type, artifact.RelativePath, artifact.ContentHash, versionsJSON,
		artifact.CreatedAt.Time())
	if err != nil {
		return "", fmt.Errorf("failed to insert artifact: %w", err)
	}
	return artifact.ID, nil
}

// RecordEdge appends one derivation edge.
func (r *LineageRepositoryImpl) RecordEdge(ctx context.Context, edge lineage.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	createdAt := edge.CreatedAt
	if createdAt.IsZero() {
		createdAt = core.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO artifact_edges (child_artifact_id, parent_artifact_id, relation, created_at)
		VALUES ($1, $2, $3, $4)`,
		edge.ChildID, edge.ParentID, edge.Relation, createdAt.Time())
	if err != nil {
		return fmt.Errorf("failed to insert artifact edge: %w", err)
	}
	return nil
}

// GetArtifact loads one artifact by ID.
func (r *LineageRepositoryImpl) GetArtifact(ctx context.Context, id core.ArtifactID) (*lineage.Artifact, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT artifact_id, run_instance_id, run_key, dataset_id,
		       artifact_type, relative_path, content_hash, component_versions, created_at
		FROM artifacts
		WHERE artifact_id = $1`, id)

	artifact, err := scanArtifact(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("artifact", id.String())
		}
		return nil, err
	}
	return artifact, nil
}

// ListArtifactsByInstance returns all artifacts for one execution.
func (r *LineageRepositoryImpl) ListArtifactsByInstance(ctx context.Context, instanceID core.RunInstanceID) ([]*lineage.Artifact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT artifact_id, run_instance_id, run_key, dataset_id,
		       artifact_type, relative_path, content_hash, component_versions, created_at
		FROM artifacts
		WHERE run_instance_id = $1
		ORDER BY artifact_id`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []*lineage.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, artifact)
	}
	return out, rows.Err()
}

// ListEdgesAmong returns edges touching any artifact in the set.
func (r *LineageRepositoryImpl) ListEdgesAmong(ctx context.Context, ids []core.ArtifactID) ([]lineage.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT child_artifact_id, parent_artifact_id, relation, created_at
		FROM artifact_edges
		WHERE child_artifact_id = ANY($1) OR parent_artifact_id = ANY($1)`,
		pq.Array(strIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list artifact edges: %w", err)
	}
	defer rows.Close()

	var out []lineage.Edge
	for rows.Next() {
		var edge lineage.Edge
		var createdAt sql.NullTime
		if err := rows.Scan(&edge.ChildID, &edge.ParentID, &edge.Relation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact edge: %w", err)
		}
		edge.CreatedAt = core.NewTimestamp(createdAt.Time)
		out = append(out, edge)
	}
	return out, rows.Err()
}

func scanArtifact(scan func(...any) error) (*lineage.Artifact, error) {
	var artifact lineage.Artifact
	var versionsJSON []byte
	var createdAt sql.NullTime

	if err := scan(
		&artifact.ID, &artifact.RunInstanceID, &artifact.RunKey, &artifact.DatasetID,
		&artifact.Type, &artifact.RelativePath, &artifact.ContentHash, &versionsJSON, &createdAt); err != nil {
		return nil, err
	}
	if len(versionsJSON) > 0 {
		if err := json.Unmarshal(versionsJSON, &artifact.ComponentVersions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal component versions: %w", err)
		}
	}
	artifact.CreatedAt = core.NewTimestamp(createdAt.Time)
	return &artifact, nil
}
