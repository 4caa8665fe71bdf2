package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/eligibility"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
)

// ReportRepositoryImpl implements ReportRepository for PostgreSQL. The
// API exposes no update or delete; the trg_report_immutability trigger
// freezes referenced reports against direct SQL as well.
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// SaveReport inserts a report row.
func (r *ReportRepositoryImpl) SaveReport(ctx context.Context, report *eligibility.Report) error {
	blockersJSON, err := json.Marshal(report.Blockers)
	if err != nil {
		return fmt.Errorf("failed to marshal blockers: %w", err)
	}
	warningsJSON, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}
	versionsJSON, err := json.Marshal(report.ComponentVersions)
	if err != nil {
		return fmt.Errorf("failed to marshal component versions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO eligibility_reports (
			report_id, level, passed, blockers, warnings,
			run_key, run_instance_id, dataset_id, component_versions, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		report.ReportID, report.Level, report.Passed, blockersJSON, warningsJSON,
		report.RunKey, report.RunInstanceID, report.DatasetID, versionsJSON,
		report.ComputedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to insert eligibility report: %w", err)
	}
	return nil
}

// GetReport loads one report by ID.
func (r *ReportRepositoryImpl) GetReport(ctx context.Context, id core.ReportID) (*eligibility.Report, error) {
	return loadReport(ctx, r.db, id)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadReport(ctx context.Context, q rowQueryer, id core.ReportID) (*eligibility.Report, error) {
	var report eligibility.Report
	var blockersJSON, warningsJSON, versionsJSON []byte
	var computedAt sql.NullTime

	err := q.QueryRowContext(ctx, `
		SELECT report_id, level, passed, blockers, warnings,
		       run_key, run_instance_id, dataset_id, component_versions, computed_at
		FROM eligibility_reports
		WHERE report_id = $1`, id).Scan(
		&report.ReportID, &report.Level, &report.Passed, &blockersJSON, &warningsJSON,
		&report.RunKey, &report.RunInstanceID, &report.DatasetID, &versionsJSON, &computedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NewNotFoundError("eligibility report", id.String())
		}
		return nil, fmt.Errorf("failed to load eligibility report: %w", err)
	}

	if err := json.Unmarshal(blockersJSON, &report.Blockers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal blockers: %w", err)
	}
	if err := json.Unmarshal(warningsJSON, &report.Warnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}
	if err := json.Unmarshal(versionsJSON, &report.ComponentVersions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal component versions: %w", err)
	}
	report.ComputedAt = core.NewTimestamp(computedAt.Time)
	return &report, nil
}
