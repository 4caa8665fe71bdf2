package memory

import (
	"context"
	"errors"
	"testing"

	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/domain/eligibility"
	"goprove/domain/governance"
	"goprove/domain/lineage"
	"goprove/domain/promotion"
	"goprove/ports"

	"github.com/stretchr/testify/assert"
)

func storedPassingReport(t *testing.T, store *Store, level eligibility.Level) *eligibility.Report {
	t.Helper()
	report := &eligibility.Report{
		ReportID: core.ReportID(core.NewID()),
		Level:    level,
		Passed:   true,
		RunKey:   core.RunKey("runkey-1"),
	}
	if err := store.SaveReport(context.Background(), report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	return report
}

func newStoredCandidate(t *testing.T, store *Store) *promotion.Candidate {
	t.Helper()
	candidate := promotion.NewCandidate(core.RunKey("runkey-1"), core.DatasetID("abc123def4567890"), nil)
	if err := store.CreateCandidate(context.Background(), candidate); err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	return candidate
}

func TestApplyTransitionHappyPath(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidate := newStoredCandidate(t, store)

	candReport := storedPassingReport(t, store, eligibility.LevelCandidate)
	updated, err := store.ApplyTransition(ctx, candidate.ID, promotion.StatusCandidate, candReport)
	assert.NoError(t, err)
	assert.Equal(t, promotion.StatusCandidate, updated.Status)
	assert.Equal(t, candReport.ReportID, *updated.ReportID)

	acceptReport := storedPassingReport(t, store, eligibility.LevelAccepted)
	updated, err = store.ApplyTransition(ctx, candidate.ID, promotion.StatusAccepted, acceptReport)
	assert.NoError(t, err)
	assert.Equal(t, promotion.StatusAccepted, updated.Status)
}

func TestApplyTransitionRejectsFabricatedReport(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidate := newStoredCandidate(t, store)

	// The caller hands in a passing report that was never stored.
	fabricated := &eligibility.Report{
		ReportID: core.ReportID("made-up"),
		Level:    eligibility.LevelCandidate,
		Passed:   true,
		RunKey:   candidate.RunKey,
	}
	_, err := store.ApplyTransition(ctx, candidate.ID, promotion.StatusCandidate, fabricated)
	assert.True(t, errors.Is(err, core.ErrMissingEvidence), "got %v", err)

	// The candidate is untouched.
	current, err := store.GetCandidate(ctx, candidate.ID)
	assert.NoError(t, err)
	assert.Equal(t, promotion.StatusExploratory, current.Status)
	assert.Nil(t, current.ReportID)
}

func TestApplyTransitionUsesStoredReportContent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidate := newStoredCandidate(t, store)

	// Store a FAILED report, then hand in a doctored copy claiming it
	// passed. The store must trust only its own row.
	report := &eligibility.Report{
		ReportID: core.ReportID(core.NewID()),
		Level:    eligibility.LevelCandidate,
		Passed:   false,
		RunKey:   candidate.RunKey,
	}
	assert.NoError(t, store.SaveReport(ctx, report))

	doctored := *report
	doctored.Passed = true
	_, err := store.ApplyTransition(ctx, candidate.ID, promotion.StatusCandidate, &doctored)
	assert.True(t, errors.Is(err, core.ErrMissingEvidence), "got %v", err)
}

func TestCreateCandidateEnforcesGateInvariant(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	// Inserting a pre-promoted row without a stored passing report is
	// refused even though it never went through ApplyTransition.
	smuggled := promotion.NewCandidate(core.RunKey("runkey-1"), core.DatasetID("abc123def4567890"), nil)
	smuggled.Status = promotion.StatusAccepted
	err := store.CreateCandidate(ctx, smuggled)
	assert.True(t, errors.Is(err, core.ErrMissingEvidence), "got %v", err)

	reportID := core.ReportID("nonexistent")
	smuggled.ReportID = &reportID
	err = store.CreateCandidate(ctx, smuggled)
	assert.True(t, errors.Is(err, core.ErrMissingEvidence), "got %v", err)
}

func TestReportImmutableOnceReferenced(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidate := newStoredCandidate(t, store)
	report := storedPassingReport(t, store, eligibility.LevelCandidate)

	_, err := store.ApplyTransition(ctx, candidate.ID, promotion.StatusCandidate, report)
	assert.NoError(t, err)

	// Rewriting the referenced report's verdict is refused.
	flipped := *report
	flipped.Passed = false
	err = store.SaveReport(ctx, &flipped)
	assert.True(t, errors.Is(err, core.ErrImmutable), "got %v", err)

	// An unreferenced report can still be re-saved.
	unreferenced := storedPassingReport(t, store, eligibility.LevelAccepted)
	unreferenced.Passed = false
	assert.NoError(t, store.SaveReport(ctx, unreferenced))
}

func TestLedgerAppendOnlyMonotonic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidateID := core.CandidateID("cand-1")

	var last core.EventID
	for i := 0; i < 5; i++ {
		event := governance.NewEvent("tester", governance.ActionEvaluate, candidateID, nil,
			core.RunKey("runkey-1"), core.DatasetID("abc123def4567890"), "passed")
		id, err := store.Append(ctx, event)
		assert.NoError(t, err)
		assert.Greater(t, id, last, "event IDs must be strictly increasing")
		last = id
	}

	events, err := store.ListEvents(ctx, candidateID)
	assert.NoError(t, err)
	assert.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].EventID, events[i-1].EventID)
	}
}

func TestArtifactsAppendOnly(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	artifact := lineage.NewArtifact(
		core.RunInstanceID("01J0000000000000000000000"),
		core.RunKey("runkey-1"),
		core.DatasetID("abc123def4567890"),
		"report", "out/report.json", []byte("content"), nil)

	_, err := store.RecordArtifact(ctx, artifact)
	assert.NoError(t, err)

	// Re-recording the same ID is refused; rows are never overwritten.
	_, err = store.RecordArtifact(ctx, artifact)
	assert.True(t, errors.Is(err, core.ErrImmutable), "got %v", err)

	// Edges require both endpoints to exist.
	err = store.RecordEdge(ctx, lineage.Edge{
		ChildID:  artifact.ID,
		ParentID: core.ArtifactID("ghost"),
		Relation: lineage.RelationDerivedFrom,
	})
	assert.True(t, core.IsNotFoundError(err), "got %v", err)

	parent := lineage.NewArtifact(artifact.RunInstanceID, artifact.RunKey, artifact.DatasetID,
		"config", "cfg/run.yaml", []byte("cfg"), nil)
	_, err = store.RecordArtifact(ctx, parent)
	assert.NoError(t, err)
	assert.NoError(t, store.RecordEdge(ctx, lineage.Edge{
		ChildID:  artifact.ID,
		ParentID: parent.ID,
		Relation: lineage.RelationDerivedFrom,
	}))

	edges, err := store.ListEdgesAmong(ctx, []core.ArtifactID{artifact.ID})
	assert.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestSnapshotWriteOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	snapshot := &dataset.Snapshot{
		ID:            core.SnapshotID("snap-1"),
		DatasetID:     core.DatasetID("abc123def4567890"),
		HashAlgorithm: core.HashAlgorithmSHA256,
		Mode:          dataset.ModeStrict,
		CreatedAt:     core.Now(),
	}
	assert.NoError(t, store.SaveSnapshot(ctx, snapshot))

	err := store.SaveSnapshot(ctx, snapshot)
	assert.True(t, errors.Is(err, core.ErrImmutable), "got %v", err)

	loaded, err := store.GetSnapshot(ctx, snapshot.ID)
	assert.NoError(t, err)
	assert.Equal(t, snapshot.DatasetID, loaded.DatasetID)

	latest, err := store.GetLatestByDatasetID(ctx, snapshot.DatasetID)
	assert.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)
}

func TestListCandidatesFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := newStoredCandidate(t, store)
	second := promotion.NewCandidate(core.RunKey("runkey-2"), core.DatasetID("fedcba9876543210"), nil)
	assert.NoError(t, store.CreateCandidate(ctx, second))

	status := promotion.StatusExploratory
	all, err := store.ListCandidates(ctx, ports.CandidateFilters{Status: &status})
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	key := first.RunKey
	byKey, err := store.ListCandidates(ctx, ports.CandidateFilters{RunKey: &key})
	assert.NoError(t, err)
	assert.Len(t, byKey, 1)
	assert.Equal(t, first.ID, byKey[0].ID)
}

func TestGetCandidateReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	candidate := newStoredCandidate(t, store)

	loaded, err := store.GetCandidate(ctx, candidate.ID)
	assert.NoError(t, err)

	// Mutating the returned row must not leak into stored state.
	loaded.Status = promotion.StatusAccepted
	reloaded, err := store.GetCandidate(ctx, candidate.ID)
	assert.NoError(t, err)
	assert.Equal(t, promotion.StatusExploratory, reloaded.Status)
}
