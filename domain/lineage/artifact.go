// Package lineage models the append-only graph of content-addressed
// artifacts and their derivation edges, the substrate for audit
// traversal from an accepted result back to its inputs.
package lineage

import (
	"bytes"
	"fmt"

	"goprove/domain/core"
)

// Relation labels a directed edge from child to parent. The enum is
// open: unknown relations are stored verbatim, only emptiness is
// rejected.
type Relation string

const (
	RelationDerivedFrom   Relation = "derived_from"
	RelationUsesNull      Relation = "uses_null"
	RelationUsesFolds     Relation = "uses_folds"
	RelationUsesTransform Relation = "uses_transforms"
	RelationUsesConfig    Relation = "uses_config"
)

// Artifact is one append-only lineage record. The content hash is a
// claim about the artifact's bytes, independently recomputable on
// demand, not merely trusted metadata.
type Artifact struct {
	ID                core.ArtifactID    `json:"artifact_id"`
	RunInstanceID     core.RunInstanceID `json:"run_instance_id"`
	RunKey            core.RunKey        `json:"run_key"`
	DatasetID         core.DatasetID     `json:"dataset_id"`
	Type              string             `json:"artifact_type"`
	RelativePath      string             `json:"relative_path"`
	ContentHash       core.ContentHash   `json:"content_hash"`
	ComponentVersions map[string]string  `json:"component_versions,omitempty"`
	CreatedAt         core.Timestamp     `json:"created_at"`
}

// Edge is one append-only derivation edge between artifacts.
type Edge struct {
	ChildID   core.ArtifactID `json:"child_artifact_id"`
	ParentID  core.ArtifactID `json:"parent_artifact_id"`
	Relation  Relation        `json:"relation"`
	CreatedAt core.Timestamp  `json:"created_at"`
}

// NewArtifact builds an artifact record, hashing the content bytes.
func NewArtifact(instanceID core.RunInstanceID, runKey core.RunKey, datasetID core.DatasetID, artifactType, relativePath string, content []byte, versions map[string]string) *Artifact {
	return &Artifact{
		ID:                core.ArtifactID(core.NewID()),
		RunInstanceID:     instanceID,
		RunKey:            runKey,
		DatasetID:         datasetID,
		Type:              artifactType,
		RelativePath:      relativePath,
		ContentHash:       core.NewContentHash(content),
		ComponentVersions: versions,
		CreatedAt:         core.Now(),
	}
}

// Validate checks that the record is complete enough to store.
func (a *Artifact) Validate() error {
	if a.RunInstanceID == "" {
		return core.NewValidationError("artifact", "run_instance_id cannot be empty")
	}
	if a.Type == "" {
		return core.NewValidationError("artifact", "artifact_type cannot be empty")
	}
	if a.ContentHash.IsEmpty() {
		return core.NewValidationError("artifact", "content_hash cannot be empty")
	}
	return nil
}

// Validate checks the edge is complete.
func (e Edge) Validate() error {
	if e.ChildID == "" || e.ParentID == "" {
		return core.NewValidationError("edge", "child and parent artifact IDs are required")
	}
	if e.Relation == "" {
		return core.NewValidationError("edge", "relation cannot be empty")
	}
	return nil
}

// VerifyContent re-hashes the given bytes against the recorded content
// hash. A mismatch means the stored claim does not describe the bytes.
func (a *Artifact) VerifyContent(content []byte) error {
	got := core.NewContentHash(content)
	if !bytes.Equal([]byte(got), []byte(a.ContentHash)) {
		return fmt.Errorf("%w: artifact %s content hash mismatch: recorded %s, recomputed %s",
			core.ErrBrokenChain, a.ID, a.ContentHash, got)
	}
	return nil
}
