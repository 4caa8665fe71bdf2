package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/eligibility"
	"goprove/domain/promotion"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
)

// CandidateRepositoryImpl implements CandidateRepository for PostgreSQL.
// The promotion gate is enforced twice: by ValidateTransition inside
// the transaction, and by the trg_promotion_gate trigger for any write
// that somehow reaches the table another way.
type CandidateRepositoryImpl struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new PostgreSQL candidate repository
func NewCandidateRepository(db *sqlx.DB) ports.CandidateRepository {
	return &CandidateRepositoryImpl{db: db}
}

// CreateCandidate inserts a new candidate row.
func (r *CandidateRepositoryImpl) CreateCandidate(ctx context.Context, candidate *promotion.Candidate) error {
	metadataJSON, err := json.Marshal(candidate.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO promotion_candidates (
			candidate_id, run_key, dataset_id, status,
			eligibility_report_id, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		candidate.ID, candidate.RunKey, candidate.DatasetID, candidate.Status,
		reportIDOrNil(candidate.ReportID), metadataJSON,
		candidate.CreatedAt.Time(), candidate.UpdatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// GetCandidate loads one candidate by ID.
func (r *CandidateRepositoryImpl) GetCandidate(ctx context.Context, id core.CandidateID) (*promotion.Candidate, error) {
	return r.getCandidate(ctx, r.db, id, false)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *CandidateRepositoryImpl) getCandidate(ctx context.Context, q queryer, id core.CandidateID, forUpdate bool) (*promotion.Candidate, error) {
	query := `
		SELECT candidate_id, run_key, dataset_id, status,
		       eligibility_report_id, metadata, created_at, updated_at
		FROM promotion_candidates
		WHERE candidate_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var candidate promotion.Candidate
	var reportID sql.NullString
	var metadataJSON []byte
	var createdAt, updatedAt sql.NullTime

	err := q.QueryRowContext(ctx, query, id).Scan(
		&candidate.ID, &candidate.RunKey, &candidate.DatasetID, &candidate.Status,
		&reportID, &metadataJSON, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("candidate", id.String())
		}
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}

	if reportID.Valid {
		rid := core.ReportID(reportID.String)
		candidate.ReportID = &rid
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &candidate.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidate metadata: %w", err)
		}
	}
	candidate.CreatedAt = core.NewTimestamp(createdAt.Time)
	candidate.UpdatedAt = core.NewTimestamp(updatedAt.Time)
	return &candidate, nil
}

// ListCandidates returns candidates matching the filters ordered by
// creation time.
func (r *CandidateRepositoryImpl) ListCandidates(ctx context.Context, filters ports.CandidateFilters) ([]*promotion.Candidate, error) {
	query := `
		SELECT candidate_id, run_key, dataset_id, status,
		       eligibility_report_id, metadata, created_at, updated_at
		FROM promotion_candidates
		WHERE 1=1`
	args := []any{}
	n := 0
	next := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if filters.Status != nil {
		query += " AND status = " + next(*filters.Status)
	}
	if filters.RunKey != nil {
		query += " AND run_key = " + next(*filters.RunKey)
	}
	if filters.DatasetID != nil {
		query += " AND dataset_id = " + next(*filters.DatasetID)
	}
	query += " ORDER BY created_at, candidate_id"
	if filters.Limit > 0 {
		query += " LIMIT " + next(filters.Limit)
	}
	if filters.Offset > 0 {
		query += " OFFSET " + next(filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []*promotion.Candidate
	for rows.Next() {
		var candidate promotion.Candidate
		var reportID sql.NullString
		var metadataJSON []byte
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(
			&candidate.ID, &candidate.RunKey, &candidate.DatasetID, &candidate.Status,
			&reportID, &metadataJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if reportID.Valid {
			rid := core.ReportID(reportID.String)
			candidate.ReportID = &rid
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &candidate.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal candidate metadata: %w", err)
			}
		}
		candidate.CreatedAt = core.NewTimestamp(createdAt.Time)
		candidate.UpdatedAt = core.NewTimestamp(updatedAt.Time)
		out = append(out, &candidate)
	}
	return out, rows.Err()
}

// ApplyTransition runs the transition as one transaction: row lock,
// rule validation against the stored report, then the guarded UPDATE.
// Rejections roll back with no partial state change.
func (r *CandidateRepositoryImpl) ApplyTransition(ctx context.Context, id core.CandidateID, target promotion.Status, report *eligibility.Report) (*promotion.Candidate, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transition: %w", err)
	}
	defer tx.Rollback()

	current, err := r.getCandidate(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	// Re-load the report from the store so the rules run against the
	// persisted row, not a caller-supplied value.
	var stored *eligibility.Report
	if target.IsGated() && report != nil {
		stored, err = loadReport(ctx, tx, report.ReportID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, core.NewMissingEvidenceError("eligibility report is not stored")
			}
			return nil, err
		}
	}

	if err := promotion.ValidateTransition(current, target, stored); err != nil {
		return nil, err
	}

	next := promotion.Apply(current, target, stored)
	_, err = tx.ExecContext(ctx, `
		UPDATE promotion_candidates
		SET status = $2, eligibility_report_id = $3, updated_at = $4
		WHERE candidate_id = $1`,
		next.ID, next.Status, reportIDOrNil(next.ReportID), next.UpdatedAt.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return next, nil
}

func reportIDOrNil(id *core.ReportID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}
