package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
)

// SnapshotRepositoryImpl implements SnapshotRepository for PostgreSQL.
// Snapshot rows are write-once; the append-only trigger rejects any
// UPDATE or DELETE.
type SnapshotRepositoryImpl struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new PostgreSQL snapshot repository
func NewSnapshotRepository(db *sqlx.DB) ports.SnapshotRepository {
	return &SnapshotRepositoryImpl{db: db}
}

// SaveSnapshot inserts snapshot metadata.
func (r *SnapshotRepositoryImpl) SaveSnapshot(ctx context.Context, snapshot *dataset.Snapshot) error {
	scopeJSON, err := json.Marshal(snapshot.Scope)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot scope: %w", err)
	}
	tablesJSON, err := json.Marshal(snapshot.Tables)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot tables: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dataset_snapshots (id, dataset_id, hash_algorithm, mode, scope, tables, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snapshot.ID, snapshot.DatasetID, snapshot.HashAlgorithm, snapshot.Mode,
		scopeJSON, tablesJSON, snapshot.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to insert dataset snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads one snapshot by ID.
func (r *SnapshotRepositoryImpl) GetSnapshot(ctx context.Context, id core.SnapshotID) (*dataset.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, dataset_id, hash_algorithm, mode, scope, tables, created_at
		FROM dataset_snapshots
		WHERE id = $1`, id)

	snapshot, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("dataset snapshot", id.String())
		}
		return nil, err
	}
	return snapshot, nil
}

// GetLatestByDatasetID returns the newest snapshot for the dataset ID.
func (r *SnapshotRepositoryImpl) GetLatestByDatasetID(ctx context.Context, datasetID core.DatasetID) (*dataset.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, dataset_id, hash_algorithm, mode, scope, tables, created_at
		FROM dataset_snapshots
		WHERE dataset_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, datasetID)

	snapshot, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("dataset snapshot", datasetID.String())
		}
		return nil, err
	}
	return snapshot, nil
}

func scanSnapshot(scan func(...any) error) (*dataset.Snapshot, error) {
	var snapshot dataset.Snapshot
	var scopeJSON, tablesJSON []byte
	var createdAt sql.NullTime

	if err := scan(
		&snapshot.ID, &snapshot.DatasetID, &snapshot.HashAlgorithm, &snapshot.Mode,
		&scopeJSON, &tablesJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scopeJSON, &snapshot.Scope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot scope: %w", err)
	}
	if err := json.Unmarshal(tablesJSON, &snapshot.Tables); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot tables: %w", err)
	}
	snapshot.CreatedAt = core.NewTimestamp(createdAt.Time)
	return &snapshot, nil
}
