package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/governance"
	"goprove/ports"

	"github.com/jmoiron/sqlx"
)

// LedgerRepositoryImpl implements the governance ledger for PostgreSQL.
// Append is the only write; the trg_events_append_only trigger rejects
// UPDATE/DELETE issued through any path.
type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new PostgreSQL governance ledger
func NewLedgerRepository(db *sqlx.DB) ports.LedgerPort {
	return &LedgerRepositoryImpl{db: db}
}

// Append writes one governance event and returns its monotonic ID.
func (r *LedgerRepositoryImpl) Append(ctx context.Context, event governance.Event) (core.EventID, error) {
	var eventID int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO governance_events (
			ts, actor, action, candidate_id, eligibility_report_id,
			run_key, dataset_id, outcome
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING event_id`,
		event.Timestamp.Time(), event.Actor, event.Action, event.CandidateID,
		reportIDOrNil(event.ReportID), nullIfEmpty(string(event.RunKey)),
		nullIfEmpty(string(event.DatasetID)), nullIfEmpty(event.Outcome)).Scan(&eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to append governance event: %w", err)
	}
	return core.EventID(eventID), nil
}

// ListEvents returns the candidate's events ordered by event ID.
func (r *LedgerRepositoryImpl) ListEvents(ctx context.Context, candidateID core.CandidateID) ([]governance.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, ts, actor, action, candidate_id,
		       eligibility_report_id, run_key, dataset_id, outcome
		FROM governance_events
		WHERE candidate_id = $1
		ORDER BY event_id`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list governance events: %w", err)
	}
	defer rows.Close()

	var out []governance.Event
	for rows.Next() {
		var event governance.Event
		var ts sql.NullTime
		var reportID, runKey, datasetID, outcome sql.NullString

		if err := rows.Scan(
			&event.EventID, &ts, &event.Actor, &event.Action, &event.CandidateID,
			&reportID, &runKey, &datasetID, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan governance event: %w", err)
		}
		event.Timestamp = core.NewTimestamp(ts.Time)
		if reportID.Valid {
			rid := core.ReportID(reportID.String)
			event.ReportID = &rid
		}
		event.RunKey = core.RunKey(runKey.String)
		event.DatasetID = core.DatasetID(datasetID.String)
		event.Outcome = outcome.String
		out = append(out, event)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
