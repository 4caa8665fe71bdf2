package eligibility

import (
	"goprove/domain/attestation"
	"goprove/domain/core"
	"goprove/domain/dataset"
)

// NullCorrection is the declared summary of a data-snooping correction
// (e.g. a Reality Check simulation) produced by the statistics layer.
// The control plane validates presence and declared counts only; it
// never recomputes the statistics, and it never assumes the declared
// actual count reflects a fully enumerated computation.
type NullCorrection struct {
	Method         string   `json:"method"`
	Seed           *uint64  `json:"seed,omitempty"`
	SeedVersion    string   `json:"seed_version,omitempty"`
	RequestedSims  int      `json:"requested_sims"`
	ActualSims     int      `json:"actual_sims"`
	DeclaredPValue *float64 `json:"declared_p_value,omitempty"`
}

// EvidenceBundle is everything a caller submits for one evaluation:
// run and dataset identity, the snapshot, attestations, and the opaque
// statistical summary fields declared by the statistics layer.
type EvidenceBundle struct {
	RunKey            core.RunKey              `json:"run_key"`
	RunInstanceID     core.RunInstanceID       `json:"run_instance_id"`
	DatasetID         core.DatasetID           `json:"dataset_id"`
	Snapshot          *dataset.Snapshot        `json:"snapshot,omitempty"`
	ComponentVersions map[string]string        `json:"component_versions"`
	WalkForwardUsed   bool                     `json:"walk_forward_used"`
	Attestation       *attestation.Attestation `json:"attestation,omitempty"`
	NullCorrection    *NullCorrection          `json:"null_correction,omitempty"`
	// Summary carries declared statistical fields (p-values, effect
	// sizes, sample counts). Opaque to the control plane.
	Summary map[string]any `json:"summary,omitempty"`
}
