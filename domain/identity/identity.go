// Package identity builds reproducible run identity: a run key hashed
// from the semantic configuration of an execution, and a run instance
// ID unique to one execution. Two executions with identical semantic
// payloads always share a run key regardless of when or where they ran.
package identity

import (
	"goprove/domain/core"
)

// SemanticPayload is the configuration a run key is derived from:
// dataset identity, configuration values and versioned component
// identifiers. Timestamp-like and path-like keys are stripped before
// hashing (see StripExcludedKeys).
type SemanticPayload map[string]any

// RunIdentity pairs the semantic run key with the per-execution
// instance identifier.
type RunIdentity struct {
	RunKey        core.RunKey        `json:"run_key"`
	RunInstanceID core.RunInstanceID `json:"run_instance_id"`
	DatasetID     core.DatasetID     `json:"dataset_id,omitempty"`
	CreatedAt     core.Timestamp     `json:"created_at"`
}

// BuildRunIdentity derives the run key from the payload's canonical
// JSON form (excluded keys stripped, object keys sorted, floats under a
// fixed formatting rule) and mints a fresh instance ID. The instance ID
// is never part of the hash.
func BuildRunIdentity(payload SemanticPayload) (RunIdentity, error) {
	canonical, err := CanonicalJSON(StripExcludedKeys(map[string]any(payload)))
	if err != nil {
		return RunIdentity{}, err
	}

	ident := RunIdentity{
		RunKey:        core.NewRunKey(canonical),
		RunInstanceID: core.NewRunInstanceID(),
		CreatedAt:     core.Now(),
	}
	if ds, ok := payload["dataset_id"].(string); ok {
		ident.DatasetID = core.DatasetID(ds)
	}
	return ident, nil
}

// Validate checks that the identity is complete.
func (r RunIdentity) Validate() error {
	if r.RunKey.IsEmpty() {
		return core.NewValidationError("run_identity", "run_key cannot be empty")
	}
	if r.RunInstanceID == "" {
		return core.NewValidationError("run_identity", "run_instance_id cannot be empty")
	}
	return nil
}
