package testkit

import (
	"context"
	"testing"

	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/domain/identity"

	"github.com/stretchr/testify/assert"
)

func testIdentity(t *testing.T) identity.RunIdentity {
	t.Helper()
	ident, err := identity.BuildRunIdentity(identity.SemanticPayload{
		"dataset_id": "abc123def4567890",
		"strategy":   "momentum",
	})
	if err != nil {
		t.Fatalf("BuildRunIdentity failed: %v", err)
	}
	return ident
}

func testSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{
		ID:            core.SnapshotID("snap-1"),
		DatasetID:     core.DatasetID("abc123def4567890"),
		HashAlgorithm: core.HashAlgorithmSHA256,
		Mode:          dataset.ModeStrict,
		CreatedAt:     core.Now(),
	}
}

func TestGenerateBarsDeterministic(t *testing.T) {
	a := GenerateBars(100, 7)
	b := GenerateBars(100, 7)
	assert.Equal(t, a, b, "same seed must generate identical bars")

	c := GenerateBars(100, 8)
	assert.NotEqual(t, a, c, "different seeds must generate different bars")
}

func TestSummarizeBars(t *testing.T) {
	summary := SummarizeBars(GenerateBars(50, 7))
	assert.Equal(t, 50, summary["sample_count"])
	assert.InDelta(t, 100.0, summary["mean_close"].(float64), 25.0)
	assert.Greater(t, summary["stddev_close"].(float64), 0.0)
}

func TestCompactPreservesDigest(t *testing.T) {
	ctx := context.Background()
	scope := []dataset.TableScope{BarsScope()}

	source := NewMemoryTableSource()
	source.AddTable(BarsSchema(), GenerateBars(50, 7))
	before, err := dataset.HashTables(ctx, source, scope, dataset.ModeStrict)
	assert.NoError(t, err)

	source.Compact("bars")
	after, err := dataset.HashTables(ctx, source, scope, dataset.ModeStrict)
	assert.NoError(t, err)

	assert.Equal(t, before.DatasetID, after.DatasetID,
		"physical reorganization must not change the dataset ID")
}

func TestPassingBundleClearsGates(t *testing.T) {
	bundle := PassingBundle(testIdentity(t), testSnapshot())
	assert.NotNil(t, bundle.Attestation)
	assert.True(t, bundle.Attestation.TrainOnlyFitEnforced)
	assert.NotNil(t, bundle.NullCorrection.Seed)
}
