package attestation

import (
	"errors"
	"testing"
	"time"

	"goprove/domain/core"
	"goprove/domain/identity"

	"github.com/stretchr/testify/assert"
)

func testIdentity(t *testing.T) identity.RunIdentity {
	t.Helper()
	ident, err := identity.BuildRunIdentity(identity.SemanticPayload{
		"dataset_id": "abc123",
		"strategy":   "momentum",
	})
	if err != nil {
		t.Fatalf("BuildRunIdentity failed: %v", err)
	}
	return ident
}

func validFolds(embargo time.Duration) []FoldWindow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []FoldWindow{
		{
			FoldID:     "fold-0",
			TrainStart: start,
			TrainEnd:   start.AddDate(0, 1, 0),
			TestStart:  start.AddDate(0, 1, 0).Add(embargo),
			TestEnd:    start.AddDate(0, 2, 0),
		},
		{
			FoldID:     "fold-1",
			TrainStart: start.AddDate(0, 1, 0),
			TrainEnd:   start.AddDate(0, 2, 0),
			TestStart:  start.AddDate(0, 2, 0).Add(embargo),
			TestEnd:    start.AddDate(0, 3, 0),
		},
	}
}

func TestBuildVerifiedAttestation(t *testing.T) {
	ident := testIdentity(t)
	embargo := 24 * time.Hour

	att, err := Build(ident, Evidence{
		Folds:          validFolds(embargo),
		PurgeApplied:   true,
		Embargo:        embargo,
		EmbargoApplied: true,
	})
	assert.NoError(t, err)
	assert.Equal(t, SchemaVersion, att.SchemaVersion)
	assert.Equal(t, ident.RunKey, att.RunKey)
	assert.Equal(t, ident.RunInstanceID, att.RunInstanceID)
	assert.True(t, att.TrainOnlyFitEnforced)
	assert.Equal(t, 2, att.FoldCount)
}

func TestBuildWithoutPurgeDoesNotAssertEnforcement(t *testing.T) {
	embargo := 24 * time.Hour
	att, err := Build(testIdentity(t), Evidence{
		Folds:          validFolds(embargo),
		PurgeApplied:   false,
		Embargo:        embargo,
		EmbargoApplied: true,
	})
	assert.NoError(t, err)
	assert.False(t, att.TrainOnlyFitEnforced, "enforcement requires both purge and embargo")
}

func TestBuildRejectsEmbargoViolation(t *testing.T) {
	embargo := 24 * time.Hour
	folds := validFolds(embargo)
	// Push the train window past the embargo boundary.
	folds[1].TrainEnd = folds[1].TestStart.Add(-time.Hour)

	att, err := Build(testIdentity(t), Evidence{
		Folds:          folds,
		PurgeApplied:   true,
		Embargo:        embargo,
		EmbargoApplied: true,
	})
	assert.Nil(t, att)
	assert.True(t, errors.Is(err, core.ErrAttestation))
	assert.Contains(t, err.Error(), "fold-1")
}

func TestBuildRejectsMalformedEvidence(t *testing.T) {
	ident := testIdentity(t)
	embargo := 24 * time.Hour

	tests := []struct {
		name     string
		mutate   func(*Evidence)
		contains string
	}{
		{
			name:     "no folds",
			mutate:   func(e *Evidence) { e.Folds = nil },
			contains: "no fold windows",
		},
		{
			name:     "negative embargo",
			mutate:   func(e *Evidence) { e.Embargo = -time.Hour },
			contains: "embargo",
		},
		{
			name:     "missing fold id",
			mutate:   func(e *Evidence) { e.Folds[0].FoldID = "" },
			contains: "fold_id",
		},
		{
			name:     "inverted train window",
			mutate:   func(e *Evidence) { e.Folds[0].TrainEnd = e.Folds[0].TrainStart.Add(-time.Hour) },
			contains: "train window",
		},
		{
			name:     "inverted test window",
			mutate:   func(e *Evidence) { e.Folds[0].TestEnd = e.Folds[0].TestStart },
			contains: "test window",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evidence := Evidence{
				Folds:          validFolds(embargo),
				PurgeApplied:   true,
				Embargo:        embargo,
				EmbargoApplied: true,
			}
			tt.mutate(&evidence)

			att, err := Build(ident, evidence)
			assert.Nil(t, att)
			assert.True(t, errors.Is(err, core.ErrAttestation), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestBuildRejectsIncompleteIdentity(t *testing.T) {
	att, err := Build(identity.RunIdentity{}, Evidence{
		Folds: validFolds(0),
	})
	assert.Nil(t, att)
	assert.Error(t, err)
}
