package ports

import (
	"context"

	"goprove/domain/core"
	"goprove/domain/eligibility"
	"goprove/domain/promotion"
)

// CandidateFilters narrows candidate listings.
type CandidateFilters struct {
	Status    *promotion.Status
	RunKey    *core.RunKey
	DatasetID *core.DatasetID
	Limit     int
	Offset    int
}

// CandidateRepository is the single guarded entry point for candidate
// state. ApplyTransition validates the lifecycle rules atomically with
// the write itself; no other write path to a candidate's status exists,
// and any store write that would violate the gate invariant must fail
// inside the store.
type CandidateRepository interface {
	CreateCandidate(ctx context.Context, candidate *promotion.Candidate) error
	GetCandidate(ctx context.Context, id core.CandidateID) (*promotion.Candidate, error)
	ListCandidates(ctx context.Context, filters CandidateFilters) ([]*promotion.Candidate, error)

	// ApplyTransition atomically verifies and applies a lifecycle
	// transition. On rejection the candidate is left untouched and the
	// error wraps ErrInvalidTransition or ErrMissingEvidence.
	ApplyTransition(ctx context.Context, id core.CandidateID, target promotion.Status, report *eligibility.Report) (*promotion.Candidate, error)
}
