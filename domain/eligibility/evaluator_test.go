package eligibility

import (
	"testing"

	"goprove/domain/attestation"
	"goprove/domain/core"
	"goprove/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func completeBundle() EvidenceBundle {
	seed := uint64(42)
	return EvidenceBundle{
		RunKey:        core.RunKey("runkey-1"),
		RunInstanceID: core.RunInstanceID("01J0000000000000000000000"),
		DatasetID:     core.DatasetID("abc123def4567890"),
		Snapshot: &dataset.Snapshot{
			ID:            core.SnapshotID("snap-1"),
			DatasetID:     core.DatasetID("abc123def4567890"),
			HashAlgorithm: core.HashAlgorithmSHA256,
			Mode:          dataset.ModeStrict,
		},
		ComponentVersions: map[string]string{"engine": "1.0.0"},
		WalkForwardUsed:   true,
		Attestation: &attestation.Attestation{
			SchemaVersion:        attestation.SchemaVersion,
			RunKey:               core.RunKey("runkey-1"),
			RunInstanceID:        core.RunInstanceID("01J0000000000000000000000"),
			PurgeApplied:         true,
			EmbargoApplied:       true,
			TrainOnlyFitEnforced: true,
			FoldCount:            3,
		},
		NullCorrection: &NullCorrection{
			Method:        "permutation",
			Seed:          &seed,
			SeedVersion:   "seed-v1",
			RequestedSims: 1000,
			ActualSims:    1000,
		},
	}
}

func TestEvaluateCompleteBundlePassesGatedLevels(t *testing.T) {
	evaluator := NewEvaluator(DefaultConfig())

	for _, level := range []Level{LevelCandidate, LevelAccepted} {
		report := evaluator.Evaluate(completeBundle(), level)
		assert.True(t, report.Passed, "level %s: blockers %v", level, report.BlockerCodes())
		assert.Empty(t, report.Blockers)
		assert.Equal(t, level, report.Level)
	}
}

func TestEvaluateExploratoryAlwaysPasses(t *testing.T) {
	evaluator := NewEvaluator(DefaultConfig())

	// An empty bundle has every criterion unmet, and exploratory still
	// passes with the findings downgraded to warnings.
	report := evaluator.Evaluate(EvidenceBundle{WalkForwardUsed: true}, LevelExploratory)
	assert.True(t, report.Passed)
	assert.Empty(t, report.Blockers)
	assert.NotEmpty(t, report.Warnings)
}

func TestEvaluateGatedBlockers(t *testing.T) {
	evaluator := NewEvaluator(DefaultConfig())

	tests := []struct {
		name    string
		mutate  func(*EvidenceBundle)
		blocker string
	}{
		{
			name:    "missing snapshot",
			mutate:  func(b *EvidenceBundle) { b.Snapshot = nil },
			blocker: ReasonSnapshotMissing,
		},
		{
			name:    "fast-dev snapshot",
			mutate:  func(b *EvidenceBundle) { b.Snapshot.Mode = dataset.ModeFastDev },
			blocker: ReasonSnapshotNotStrict,
		},
		{
			name:    "missing run identity",
			mutate:  func(b *EvidenceBundle) { b.RunKey = "" },
			blocker: ReasonRunIdentityMissing,
		},
		{
			name:    "dataset mismatch",
			mutate:  func(b *EvidenceBundle) { b.Snapshot.DatasetID = "1111111111111111" },
			blocker: ReasonRunIdentityInconsistent,
		},
		{
			name:    "attestation run key mismatch",
			mutate:  func(b *EvidenceBundle) { b.Attestation.RunKey = "other" },
			blocker: ReasonRunIdentityInconsistent,
		},
		{
			name:    "missing component versions",
			mutate:  func(b *EvidenceBundle) { b.ComponentVersions = nil },
			blocker: ReasonComponentVersionsMissing,
		},
		{
			name:    "walk-forward without attestation",
			mutate:  func(b *EvidenceBundle) { b.Attestation = nil },
			blocker: ReasonAttestationMissing,
		},
		{
			name:    "attestation schema mismatch",
			mutate:  func(b *EvidenceBundle) { b.Attestation.SchemaVersion = "fold-causality-v0" },
			blocker: ReasonAttestationSchemaMismatch,
		},
		{
			name:    "attestation not enforced",
			mutate:  func(b *EvidenceBundle) { b.Attestation.TrainOnlyFitEnforced = false },
			blocker: ReasonAttestationNotEnforced,
		},
		{
			name:    "null correction without seed",
			mutate:  func(b *EvidenceBundle) { b.NullCorrection.Seed = nil },
			blocker: ReasonNullSeedMissing,
		},
		{
			name:    "underpowered null",
			mutate:  func(b *EvidenceBundle) { b.NullCorrection.ActualSims = 500 },
			blocker: ReasonUnderpoweredNull,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := completeBundle()
			tt.mutate(&bundle)

			report := evaluator.Evaluate(bundle, LevelCandidate)
			assert.False(t, report.Passed)
			assert.True(t, report.HasBlocker(tt.blocker),
				"expected blocker %s, got %v", tt.blocker, report.BlockerCodes())
			assert.Empty(t, report.Warnings)
		})
	}
}

func TestEvaluateUnknownLevel(t *testing.T) {
	evaluator := NewEvaluator(DefaultConfig())

	report := evaluator.Evaluate(completeBundle(), Level("production"))
	assert.False(t, report.Passed)
	assert.True(t, report.HasBlocker(ReasonLevelUnknown))
}

func TestEvaluateNullFractionThreshold(t *testing.T) {
	evaluator := NewEvaluator(Config{MinNullFraction: 0.95})

	bundle := completeBundle()
	bundle.NullCorrection.RequestedSims = 1000
	bundle.NullCorrection.ActualSims = 950
	report := evaluator.Evaluate(bundle, LevelAccepted)
	assert.True(t, report.Passed, "exactly the threshold fraction must pass")

	bundle = completeBundle()
	bundle.NullCorrection.ActualSims = 949
	report = evaluator.Evaluate(bundle, LevelAccepted)
	assert.True(t, report.HasBlocker(ReasonUnderpoweredNull))
}

func TestEvaluateDeterministicContent(t *testing.T) {
	evaluator := NewEvaluator(DefaultConfig())

	bundle := completeBundle()
	bundle.Snapshot = nil
	bundle.ComponentVersions = nil

	first := evaluator.Evaluate(bundle, LevelCandidate)
	second := evaluator.Evaluate(bundle, LevelCandidate)

	assert.Equal(t, first.BlockerCodes(), second.BlockerCodes(),
		"same bundle and level must produce identical findings in identical order")
	assert.NotEqual(t, first.ReportID, second.ReportID)
}
