// Package governance models the append-only event log of every
// evaluation and promotion action, including rejected attempts, so
// bypass attempts are themselves auditable.
package governance

import (
	"goprove/domain/core"
)

// Action is the kind of governance action an event records.
type Action string

const (
	ActionEvaluate Action = "evaluate"
	ActionPromote  Action = "promote"
	ActionReject   Action = "reject"
)

// Event is one append-only governance ledger entry. EventID is
// assigned monotonically by the store; once written a row is never
// updated or deleted.
type Event struct {
	EventID     core.EventID     `json:"event_id"`
	Timestamp   core.Timestamp   `json:"timestamp"`
	Actor       string           `json:"actor"`
	Action      Action           `json:"action"`
	CandidateID core.CandidateID `json:"candidate_id"`
	ReportID    *core.ReportID   `json:"eligibility_report_id,omitempty"`
	// Denormalized identity for fast filtering.
	RunKey    core.RunKey    `json:"run_key,omitempty"`
	DatasetID core.DatasetID `json:"dataset_id,omitempty"`
	// Outcome notes the result of the action, e.g. "accepted" or the
	// structured rejection reason for refused transitions.
	Outcome string `json:"outcome,omitempty"`
}

// NewEvent builds an event ready for appending. The store assigns the
// monotonic EventID.
func NewEvent(actor string, action Action, candidateID core.CandidateID, reportID *core.ReportID, runKey core.RunKey, datasetID core.DatasetID, outcome string) Event {
	return Event{
		Timestamp:   core.Now(),
		Actor:       actor,
		Action:      action,
		CandidateID: candidateID,
		ReportID:    reportID,
		RunKey:      runKey,
		DatasetID:   datasetID,
		Outcome:     outcome,
	}
}
