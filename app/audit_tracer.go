package app

import (
	"context"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/eligibility"
	"goprove/domain/governance"
	"goprove/domain/lineage"
	"goprove/domain/promotion"
)

// AuditTrace is the full evidentiary chain for one accepted result:
// the candidate, the report that gated it, the ordered governance
// events, and the lineage subgraph of the run that produced it.
type AuditTrace struct {
	Candidate *promotion.Candidate `json:"candidate"`
	Report    *eligibility.Report  `json:"report"`
	Events    []governance.Event   `json:"events"`
	Artifacts []*lineage.Artifact  `json:"artifacts"`
	Edges     []lineage.Edge       `json:"edges"`
}

// TraceAcceptance reconstructs the evidentiary chain for an accepted
// candidate using only the ledger and the lineage graph. Read-only.
//
// A missing eligibility report surfaces as a broken-chain error, which
// the promotion gate should make unreachable; treat it as a corruption
// signal, not a normal failure.
func (s *ControlPlane) TraceAcceptance(ctx context.Context, candidateID core.CandidateID) (*AuditTrace, error) {
	candidate, err := s.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate.Status != promotion.StatusAccepted {
		return nil, fmt.Errorf("%w: candidate %s has status %s", core.ErrNotAccepted, candidate.ID, candidate.Status)
	}
	if candidate.ReportID == nil {
		return nil, fmt.Errorf("%w: accepted candidate %s has no eligibility report reference", core.ErrBrokenChain, candidate.ID)
	}

	report, err := s.reports.GetReport(ctx, *candidate.ReportID)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: eligibility report %s referenced by candidate %s is missing", core.ErrBrokenChain, *candidate.ReportID, candidate.ID)
		}
		return nil, err
	}

	events, err := s.ledger.ListEvents(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.lineage.ListArtifactsByInstance(ctx, report.RunInstanceID)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ArtifactID, len(artifacts))
	for i, a := range artifacts {
		ids[i] = a.ID
	}
	edges, err := s.lineage.ListEdgesAmong(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &AuditTrace{
		Candidate: candidate,
		Report:    report,
		Events:    events,
		Artifacts: artifacts,
		Edges:     edges,
	}, nil
}
