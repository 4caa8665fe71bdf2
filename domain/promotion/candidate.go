// Package promotion models the staged result lifecycle and the rules
// that gate it. The only legal path from exploratory to accepted runs
// through passing, level-matched eligibility reports.
package promotion

import (
	"goprove/domain/core"
)

// Status is a candidate's lifecycle state.
type Status string

const (
	StatusExploratory Status = "exploratory"
	StatusCandidate   Status = "candidate"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusExploratory, StatusCandidate, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// IsGated reports whether reaching the status requires a passing,
// level-matched eligibility report.
func (s Status) IsGated() bool {
	return s == StatusCandidate || s == StatusAccepted
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Candidate is one research result moving through the lifecycle.
// Invariant, enforced at the store: status in {candidate, accepted}
// implies ReportID is set, the referenced report passed, and the report
// level equals the status.
type Candidate struct {
	ID        core.CandidateID  `json:"candidate_id"`
	RunKey    core.RunKey       `json:"run_key"`
	DatasetID core.DatasetID    `json:"dataset_id"`
	Status    Status            `json:"status"`
	ReportID  *core.ReportID    `json:"eligibility_report_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt core.Timestamp    `json:"created_at"`
	UpdatedAt core.Timestamp    `json:"updated_at"`
}

// NewCandidate creates a candidate in the exploratory state.
func NewCandidate(runKey core.RunKey, datasetID core.DatasetID, metadata map[string]string) *Candidate {
	now := core.Now()
	return &Candidate{
		ID:        core.CandidateID(core.NewID()),
		RunKey:    runKey,
		DatasetID: datasetID,
		Status:    StatusExploratory,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
