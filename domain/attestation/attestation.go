// Package attestation records that walk-forward fold causality rules
// (purge, embargo, train-only fit) were honored for a run. The builder
// verifies the structured evidence itself rather than trusting the
// caller's claim.
package attestation

import (
	"fmt"
	"time"

	"goprove/domain/core"
	"goprove/domain/identity"
)

// SchemaVersion is the current attestation schema. The eligibility
// evaluator rejects any other version outright instead of attempting
// best-effort parsing.
const SchemaVersion = "fold-causality-v1"

// FoldWindow carries the boundary timestamps of one walk-forward fold.
type FoldWindow struct {
	FoldID     string    `json:"fold_id"`
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TestStart  time.Time `json:"test_start"`
	TestEnd    time.Time `json:"test_end"`
}

// Evidence is the structured proof a caller submits: the fold windows
// that were actually used plus the discipline that was applied to them.
type Evidence struct {
	Folds          []FoldWindow  `json:"folds"`
	PurgeApplied   bool          `json:"purge_applied"`
	Embargo        time.Duration `json:"embargo"`
	EmbargoApplied bool          `json:"embargo_applied"`
}

// Attestation asserts, for one run, that fold causality was honored.
// Consumed by the eligibility evaluator; never mutated.
type Attestation struct {
	SchemaVersion        string             `json:"schema_version"`
	RunKey               core.RunKey        `json:"run_key"`
	RunInstanceID        core.RunInstanceID `json:"run_instance_id"`
	PurgeApplied         bool               `json:"purge_applied"`
	EmbargoApplied       bool               `json:"embargo_applied"`
	TrainOnlyFitEnforced bool               `json:"train_only_fit_enforced"`
	FoldCount            int                `json:"fold_count"`
	AsOf                 core.Timestamp     `json:"as_of"`
}

// Build verifies the submitted evidence and produces an attestation.
// TrainOnlyFitEnforced is set only when purge and embargo were applied
// AND every fold's train window verifiably ends at or before the test
// window start minus the embargo. Inconsistent evidence fails with an
// attestation error and leaves no other state behind.
func Build(ident identity.RunIdentity, evidence Evidence) (*Attestation, error) {
	if err := ident.Validate(); err != nil {
		return nil, err
	}
	if len(evidence.Folds) == 0 {
		return nil, core.NewAttestationError("no fold windows submitted")
	}
	if evidence.Embargo < 0 {
		return nil, core.NewAttestationError("embargo cannot be negative")
	}

	for _, fold := range evidence.Folds {
		if err := checkFold(fold, evidence.Embargo); err != nil {
			return nil, err
		}
	}

	return &Attestation{
		SchemaVersion:        SchemaVersion,
		RunKey:               ident.RunKey,
		RunInstanceID:        ident.RunInstanceID,
		PurgeApplied:         evidence.PurgeApplied,
		EmbargoApplied:       evidence.EmbargoApplied,
		TrainOnlyFitEnforced: evidence.PurgeApplied && evidence.EmbargoApplied,
		FoldCount:            len(evidence.Folds),
		AsOf:                 core.Now(),
	}, nil
}

func checkFold(fold FoldWindow, embargo time.Duration) error {
	if fold.FoldID == "" {
		return core.NewAttestationError("fold window missing fold_id")
	}
	if !fold.TrainStart.Before(fold.TrainEnd) {
		return core.NewAttestationError(fmt.Sprintf("fold %s: train window is empty or inverted", fold.FoldID))
	}
	if !fold.TestStart.Before(fold.TestEnd) {
		return core.NewAttestationError(fmt.Sprintf("fold %s: test window is empty or inverted", fold.FoldID))
	}
	// Train must end at or before test start minus the embargo buffer.
	boundary := fold.TestStart.Add(-embargo)
	if fold.TrainEnd.After(boundary) {
		return core.NewAttestationError(fmt.Sprintf(
			"fold %s: train end %s falls after test start %s minus embargo %s",
			fold.FoldID,
			fold.TrainEnd.Format(time.RFC3339),
			fold.TestStart.Format(time.RFC3339),
			embargo,
		))
	}
	return nil
}
