// Package memory implements the control-plane store in process memory.
// It is the reference store for tests and local-first runs: one mutex
// serializes all writes, every invariant is enforced inside the write
// itself, and rows handed out are copies so callers cannot mutate
// stored state through aliases.
package memory

import (
	"context"
	"sort"
	"sync"

	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/domain/eligibility"
	"goprove/domain/governance"
	"goprove/domain/lineage"
	"goprove/domain/promotion"
	"goprove/ports"
)

// Store holds all control-plane state. Implements every store port.
type Store struct {
	mu sync.RWMutex

	candidates map[core.CandidateID]*promotion.Candidate
	reports    map[core.ReportID]*eligibility.Report
	referenced map[core.ReportID]bool
	snapshots  map[core.SnapshotID]*dataset.Snapshot
	events     []governance.Event
	nextEvent  core.EventID
	artifacts  map[core.ArtifactID]*lineage.Artifact
	edges      []lineage.Edge
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		candidates: make(map[core.CandidateID]*promotion.Candidate),
		reports:    make(map[core.ReportID]*eligibility.Report),
		referenced: make(map[core.ReportID]bool),
		snapshots:  make(map[core.SnapshotID]*dataset.Snapshot),
		artifacts:  make(map[core.ArtifactID]*lineage.Artifact),
		nextEvent:  1,
	}
}

// Interface assertions - the store is the only write path.
var (
	_ ports.CandidateRepository = (*Store)(nil)
	_ ports.ReportRepository    = (*Store)(nil)
	_ ports.LedgerPort          = (*Store)(nil)
	_ ports.LineagePort         = (*Store)(nil)
	_ ports.SnapshotRepository  = (*Store)(nil)
)

// ---- candidates ----

// CreateCandidate inserts a new candidate. The gate invariant is
// checked even on insert so no code path can create a pre-promoted row
// without evidence.
func (s *Store) CreateCandidate(_ context.Context, candidate *promotion.Candidate) error {
	if candidate == nil || candidate.ID == "" {
		return core.NewValidationError("candidate", "candidate and its ID are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.candidates[candidate.ID]; exists {
		return core.NewValidationError("candidate", "candidate already exists")
	}
	if err := s.checkGateInvariantLocked(candidate); err != nil {
		return err
	}
	cp := copyCandidate(candidate)
	s.candidates[candidate.ID] = cp
	if cp.ReportID != nil {
		s.referenced[*cp.ReportID] = true
	}
	return nil
}

// GetCandidate returns a copy of the candidate.
func (s *Store) GetCandidate(_ context.Context, id core.CandidateID) (*promotion.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, core.NewNotFoundError("candidate", id.String())
	}
	return copyCandidate(c), nil
}

// ListCandidates returns candidates matching the filters, ordered by
// creation time.
func (s *Store) ListCandidates(_ context.Context, filters ports.CandidateFilters) ([]*promotion.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*promotion.Candidate
	for _, c := range s.candidates {
		if filters.Status != nil && c.Status != *filters.Status {
			continue
		}
		if filters.RunKey != nil && c.RunKey != *filters.RunKey {
			continue
		}
		if filters.DatasetID != nil && c.DatasetID != *filters.DatasetID {
			continue
		}
		out = append(out, copyCandidate(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt) ||
			(!out[j].CreatedAt.Before(out[i].CreatedAt) && out[i].ID < out[j].ID)
	})
	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

// ApplyTransition validates and applies a lifecycle transition under
// the write lock, as one all-or-nothing operation. Rejections leave the
// candidate untouched.
func (s *Store) ApplyTransition(_ context.Context, id core.CandidateID, target promotion.Status, report *eligibility.Report) (*promotion.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.candidates[id]
	if !ok {
		return nil, core.NewNotFoundError("candidate", id.String())
	}

	// For gated targets the report must be the stored row, not a
	// caller-fabricated value.
	if target.IsGated() && report != nil {
		stored, ok := s.reports[report.ReportID]
		if !ok {
			return nil, core.NewMissingEvidenceError("eligibility report is not stored")
		}
		report = stored
	}

	if err := promotion.ValidateTransition(current, target, report); err != nil {
		return nil, err
	}

	next := promotion.Apply(current, target, report)
	if err := s.checkGateInvariantLocked(next); err != nil {
		return nil, err
	}
	s.candidates[id] = next
	if next.ReportID != nil {
		s.referenced[*next.ReportID] = true
	}
	return copyCandidate(next), nil
}

// checkGateInvariantLocked re-derives the gate invariant from stored
// rows: a gated status requires a stored, passing, level-matched
// report. It runs inside every candidate write so the invariant holds
// at all times, not just at transition call sites.
func (s *Store) checkGateInvariantLocked(c *promotion.Candidate) error {
	if !c.Status.IsGated() {
		return nil
	}
	if c.ReportID == nil {
		return core.NewMissingEvidenceError("gated status requires an eligibility report reference")
	}
	report, ok := s.reports[*c.ReportID]
	if !ok {
		return core.NewMissingEvidenceError("referenced eligibility report is not stored")
	}
	if !report.Passed {
		return core.NewMissingEvidenceError("referenced eligibility report did not pass")
	}
	if string(report.Level) != string(c.Status) {
		return core.NewMissingEvidenceError("referenced eligibility report level does not match status")
	}
	return nil
}

// ---- reports ----

// SaveReport stores a report. Re-saving a referenced report with
// different passed/level content fails: referenced reports are frozen.
func (s *Store) SaveReport(_ context.Context, report *eligibility.Report) error {
	if report == nil || report.ReportID == "" {
		return core.NewValidationError("report", "report and its ID are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.reports[report.ReportID]; ok {
		if s.referenced[report.ReportID] &&
			(existing.Passed != report.Passed || existing.Level != report.Level) {
			return core.ErrImmutable
		}
	}
	s.reports[report.ReportID] = copyReport(report)
	return nil
}

// GetReport returns a copy of the report.
func (s *Store) GetReport(_ context.Context, id core.ReportID) (*eligibility.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, core.NewNotFoundError("eligibility report", id.String())
	}
	return copyReport(r), nil
}

// ---- governance ledger ----

// Append writes one event and returns its monotonic ID. This is the
// ledger's entire mutating surface.
func (s *Store) Append(_ context.Context, event governance.Event) (core.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.EventID = s.nextEvent
	s.nextEvent++
	s.events = append(s.events, event)
	return event.EventID, nil
}

// ListEvents returns the candidate's events ordered by event ID.
func (s *Store) ListEvents(_ context.Context, candidateID core.CandidateID) ([]governance.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []governance.Event
	for _, e := range s.events {
		if e.CandidateID == candidateID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

// ---- lineage ----

// RecordArtifact appends an artifact row. Duplicate IDs are rejected;
// existing rows are never overwritten.
func (s *Store) RecordArtifact(_ context.Context, artifact *lineage.Artifact) (core.ArtifactID, error) {
	if artifact == nil {
		return "", core.NewValidationError("artifact", "artifact cannot be nil")
	}
	if err := artifact.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.artifacts[artifact.ID]; exists {
		return "", core.ErrImmutable
	}
	cp := *artifact
	s.artifacts[artifact.ID] = &cp
	return artifact.ID, nil
}

// RecordEdge appends a derivation edge between stored artifacts.
func (s *Store) RecordEdge(_ context.Context, edge lineage.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[edge.ChildID]; !ok {
		return core.NewNotFoundError("artifact", edge.ChildID.String())
	}
	if _, ok := s.artifacts[edge.ParentID]; !ok {
		return core.NewNotFoundError("artifact", edge.ParentID.String())
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = core.Now()
	}
	s.edges = append(s.edges, edge)
	return nil
}

// GetArtifact returns a copy of the artifact row.
func (s *Store) GetArtifact(_ context.Context, id core.ArtifactID) (*lineage.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[id]
	if !ok {
		return nil, core.NewNotFoundError("artifact", id.String())
	}
	cp := *a
	return &cp, nil
}

// ListArtifactsByInstance returns all artifacts for one execution.
func (s *Store) ListArtifactsByInstance(_ context.Context, instanceID core.RunInstanceID) ([]*lineage.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*lineage.Artifact
	for _, a := range s.artifacts {
		if a.RunInstanceID == instanceID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListEdgesAmong returns edges touching any artifact in the set.
func (s *Store) ListEdgesAmong(_ context.Context, ids []core.ArtifactID) ([]lineage.Edge, error) {
	member := make(map[core.ArtifactID]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []lineage.Edge
	for _, e := range s.edges {
		if member[e.ChildID] || member[e.ParentID] {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- snapshots ----

// SaveSnapshot stores snapshot metadata. Snapshots are write-once.
func (s *Store) SaveSnapshot(_ context.Context, snapshot *dataset.Snapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return core.NewValidationError("snapshot", "snapshot and its ID are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snapshot.ID]; exists {
		return core.ErrImmutable
	}
	cp := copySnapshot(snapshot)
	s.snapshots[snapshot.ID] = cp
	return nil
}

// GetSnapshot returns a copy of the snapshot.
func (s *Store) GetSnapshot(_ context.Context, id core.SnapshotID) (*dataset.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, core.NewNotFoundError("dataset snapshot", id.String())
	}
	return copySnapshot(snap), nil
}

// GetLatestByDatasetID returns the newest snapshot with the dataset ID.
func (s *Store) GetLatestByDatasetID(_ context.Context, datasetID core.DatasetID) (*dataset.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *dataset.Snapshot
	for _, snap := range s.snapshots {
		if snap.DatasetID != datasetID {
			continue
		}
		if latest == nil || latest.CreatedAt.Before(snap.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, core.NewNotFoundError("dataset snapshot", datasetID.String())
	}
	return copySnapshot(latest), nil
}

// ---- copies ----

func copyCandidate(c *promotion.Candidate) *promotion.Candidate {
	cp := *c
	if c.ReportID != nil {
		id := *c.ReportID
		cp.ReportID = &id
	}
	if c.Metadata != nil {
		cp.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func copyReport(r *eligibility.Report) *eligibility.Report {
	cp := *r
	cp.Blockers = append([]eligibility.Reason(nil), r.Blockers...)
	cp.Warnings = append([]eligibility.Reason(nil), r.Warnings...)
	if r.ComponentVersions != nil {
		cp.ComponentVersions = make(map[string]string, len(r.ComponentVersions))
		for k, v := range r.ComponentVersions {
			cp.ComponentVersions[k] = v
		}
	}
	return &cp
}

func copySnapshot(s *dataset.Snapshot) *dataset.Snapshot {
	cp := *s
	cp.Scope = append([]string(nil), s.Scope...)
	cp.Tables = append([]dataset.TableDigestEntry(nil), s.Tables...)
	return &cp
}
