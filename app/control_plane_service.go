// Package app wires the control-plane operations exposed to
// orchestration: candidate creation, evaluation, promotion, listing and
// audit tracing. Every mutation flows through the guarded store ports;
// there is no other write path.
package app

import (
	"context"
	"fmt"

	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/domain/eligibility"
	"goprove/domain/governance"
	"goprove/domain/identity"
	"goprove/domain/lineage"
	"goprove/domain/promotion"
	"goprove/internal"
	"goprove/ports"
)

// ControlPlane is the single entry point for all control-plane writes.
// The scheduling model is single-writer: one process owns the store at
// a time, and within it all operations on a candidate are ordered by
// call order.
type ControlPlane struct {
	candidates ports.CandidateRepository
	reports    ports.ReportRepository
	ledger     ports.LedgerPort
	lineage    ports.LineagePort
	snapshots  ports.SnapshotRepository
	evaluator  *eligibility.Evaluator
	actor      string
	logger     *internal.Logger
}

// NewControlPlane assembles the service.
func NewControlPlane(
	candidates ports.CandidateRepository,
	reports ports.ReportRepository,
	ledger ports.LedgerPort,
	lineagePort ports.LineagePort,
	snapshots ports.SnapshotRepository,
	evaluator *eligibility.Evaluator,
	actor string,
	logger *internal.Logger,
) *ControlPlane {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if actor == "" {
		actor = "control-plane"
	}
	return &ControlPlane{
		candidates: candidates,
		reports:    reports,
		ledger:     ledger,
		lineage:    lineagePort,
		snapshots:  snapshots,
		evaluator:  evaluator,
		actor:      actor,
		logger:     logger,
	}
}

// SnapshotDataset hashes the in-scope tables and persists the snapshot.
func (s *ControlPlane) SnapshotDataset(ctx context.Context, source ports.TableSource, scope []dataset.TableScope, mode dataset.Mode) (*dataset.Snapshot, error) {
	snapshot, err := dataset.HashTables(ctx, source, scope, mode)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	s.logger.Info("snapshot %s created: dataset_id=%s mode=%s tables=%d",
		snapshot.ID, snapshot.DatasetID, snapshot.Mode, len(snapshot.Tables))
	return snapshot, nil
}

// CreateCandidate registers a new exploratory candidate for a run.
func (s *ControlPlane) CreateCandidate(ctx context.Context, ident identity.RunIdentity, metadata map[string]string) (*promotion.Candidate, error) {
	if err := ident.Validate(); err != nil {
		return nil, err
	}
	candidate := promotion.NewCandidate(ident.RunKey, ident.DatasetID, metadata)
	if err := s.candidates.CreateCandidate(ctx, candidate); err != nil {
		return nil, err
	}
	s.logger.Info("candidate %s created for run_key=%s", candidate.ID, candidate.RunKey)
	return candidate, nil
}

// EvaluateAndRecord evaluates the evidence bundle at the target level,
// persists the report and appends an evaluate event to the ledger. A
// failed evaluation is a normal outcome, returned as passed=false.
func (s *ControlPlane) EvaluateAndRecord(ctx context.Context, candidateID core.CandidateID, level eligibility.Level, bundle eligibility.EvidenceBundle) (*eligibility.Report, error) {
	candidate, err := s.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	report := s.evaluator.Evaluate(bundle, level)
	if err := s.reports.SaveReport(ctx, report); err != nil {
		return nil, err
	}

	outcome := "passed"
	if !report.Passed {
		outcome = fmt.Sprintf("failed: %v", report.BlockerCodes())
	}
	event := governance.NewEvent(s.actor, governance.ActionEvaluate, candidate.ID,
		&report.ReportID, candidate.RunKey, candidate.DatasetID, outcome)
	if _, err := s.ledger.Append(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("evaluated candidate %s at level %s: passed=%t blockers=%d",
		candidate.ID, level, report.Passed, len(report.Blockers))
	return report, nil
}

// Promote applies a lifecycle transition through the guarded store
// entry point. Both outcomes reach the ledger: successful transitions
// as promote/reject events, refused attempts with the structured
// rejection reason, so bypass attempts are auditable too.
func (s *ControlPlane) Promote(ctx context.Context, candidateID core.CandidateID, target promotion.Status, reportID *core.ReportID) (*promotion.Candidate, error) {
	candidate, err := s.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	var report *eligibility.Report
	if reportID != nil {
		report, err = s.reports.GetReport(ctx, *reportID)
		if err != nil && !core.IsNotFoundError(err) {
			return nil, err
		}
	}

	updated, terr := s.candidates.ApplyTransition(ctx, candidateID, target, report)

	action := governance.ActionPromote
	if target == promotion.StatusRejected {
		action = governance.ActionReject
	}
	outcome := string(target)
	if terr != nil {
		outcome = fmt.Sprintf("refused: %v", terr)
	}
	event := governance.NewEvent(s.actor, action, candidate.ID, reportID,
		candidate.RunKey, candidate.DatasetID, outcome)
	if _, lerr := s.ledger.Append(ctx, event); lerr != nil {
		s.logger.Error("failed to record %s event for candidate %s: %v", action, candidate.ID, lerr)
		if terr == nil {
			return nil, lerr
		}
	}

	if terr != nil {
		s.logger.Warn("transition of candidate %s to %s refused: %v", candidate.ID, target, terr)
		return nil, terr
	}
	s.logger.Info("candidate %s transitioned to %s", candidate.ID, target)
	return updated, nil
}

// ListCandidates returns candidates matching the filters. Read-only.
func (s *ControlPlane) ListCandidates(ctx context.Context, filters ports.CandidateFilters) ([]*promotion.Candidate, error) {
	return s.candidates.ListCandidates(ctx, filters)
}

// RecordArtifact appends an artifact to the lineage graph.
func (s *ControlPlane) RecordArtifact(ctx context.Context, artifact *lineage.Artifact) (core.ArtifactID, error) {
	return s.lineage.RecordArtifact(ctx, artifact)
}

// RecordEdge appends a derivation edge to the lineage graph.
func (s *ControlPlane) RecordEdge(ctx context.Context, edge lineage.Edge) error {
	return s.lineage.RecordEdge(ctx, edge)
}

// VerifyArtifact recomputes the artifact's content hash from the given
// bytes and compares it against the stored claim.
func (s *ControlPlane) VerifyArtifact(ctx context.Context, id core.ArtifactID, content []byte) error {
	artifact, err := s.lineage.GetArtifact(ctx, id)
	if err != nil {
		return err
	}
	return artifact.VerifyContent(content)
}
