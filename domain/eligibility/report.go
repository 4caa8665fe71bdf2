package eligibility

import (
	"goprove/domain/core"
)

// Level is the lifecycle level an evaluation targets.
type Level string

const (
	LevelExploratory Level = "exploratory"
	LevelCandidate   Level = "candidate"
	LevelAccepted    Level = "accepted"
)

// IsValid reports whether the level is one of the known lifecycle levels.
func (l Level) IsValid() bool {
	return l == LevelExploratory || l == LevelCandidate || l == LevelAccepted
}

// IsGated reports whether the level requires fail-closed evaluation.
func (l Level) IsGated() bool {
	return l == LevelCandidate || l == LevelAccepted
}

// Reason codes - the closed set of enumerable blocker/warning reasons.
// Every rejection names its unmet criterion; there is no bare "failed".
const (
	ReasonSnapshotMissing           = "snapshot_missing"
	ReasonSnapshotNotStrict         = "snapshot_not_strict"
	ReasonRunIdentityMissing        = "run_identity_missing"
	ReasonRunIdentityInconsistent   = "run_identity_inconsistent"
	ReasonComponentVersionsMissing  = "component_versions_missing"
	ReasonAttestationMissing        = "attestation_missing"
	ReasonAttestationSchemaMismatch = "attestation_schema_mismatch"
	ReasonAttestationNotEnforced    = "attestation_not_enforced"
	ReasonNullSeedMissing           = "null_seed_missing"
	ReasonUnderpoweredNull          = "underpowered_null"
	ReasonLevelUnknown              = "level_unknown"
)

// Reason is one structured, enumerable evaluation finding.
type Reason struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Report is the output of one evaluation call. A failed evaluation is a
// normal, auditable outcome: Passed=false with populated Blockers,
// never an error. Once any promotion candidate references a report its
// Passed and Level fields are immutable and the row cannot be deleted.
type Report struct {
	ReportID          core.ReportID      `json:"report_id"`
	Level             Level              `json:"level"`
	Passed            bool               `json:"passed"`
	Blockers          []Reason           `json:"blockers"`
	Warnings          []Reason           `json:"warnings"`
	RunKey            core.RunKey        `json:"run_key"`
	RunInstanceID     core.RunInstanceID `json:"run_instance_id"`
	DatasetID         core.DatasetID     `json:"dataset_id"`
	ComponentVersions map[string]string  `json:"component_versions"`
	ComputedAt        core.Timestamp     `json:"computed_at"`
}

// BlockerCodes returns the blocker codes in evaluation order.
func (r *Report) BlockerCodes() []string {
	codes := make([]string, len(r.Blockers))
	for i, b := range r.Blockers {
		codes[i] = b.Code
	}
	return codes
}

// HasBlocker reports whether the report carries a blocker with the code.
func (r *Report) HasBlocker(code string) bool {
	for _, b := range r.Blockers {
		if b.Code == code {
			return true
		}
	}
	return false
}
