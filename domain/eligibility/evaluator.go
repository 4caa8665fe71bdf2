package eligibility

import (
	"fmt"

	"goprove/domain/attestation"
	"goprove/domain/core"
	"goprove/domain/dataset"
)

// Config tunes the evaluator's thresholds.
type Config struct {
	// MinNullFraction is the minimum fraction of requested null
	// simulations that must have actually run.
	MinNullFraction float64
	// AttestationSchemaVersion is the only attestation schema accepted.
	AttestationSchemaVersion string
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinNullFraction:          0.95,
		AttestationSchemaVersion: attestation.SchemaVersion,
	}
}

// Evaluator is the fail-closed eligibility policy. Exploratory level
// always passes with missing evidence downgraded to warnings; gated
// levels turn every unmet criterion into a distinct named blocker.
type Evaluator struct {
	cfg Config
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(cfg Config) *Evaluator {
	if cfg.MinNullFraction <= 0 {
		cfg.MinNullFraction = DefaultConfig().MinNullFraction
	}
	if cfg.AttestationSchemaVersion == "" {
		cfg.AttestationSchemaVersion = attestation.SchemaVersion
	}
	return &Evaluator{cfg: cfg}
}

// Evaluate produces a report for the bundle at the target level. It
// never fails: an evaluation that says "no" is a normal, expected,
// auditable outcome. Checks run in a fixed order so the same bundle and
// level always produce identical report content apart from the report
// ID and computation timestamp.
func (e *Evaluator) Evaluate(bundle EvidenceBundle, level Level) *Report {
	report := &Report{
		ReportID:          core.ReportID(core.NewID()),
		Level:             level,
		Blockers:          []Reason{},
		Warnings:          []Reason{},
		RunKey:            bundle.RunKey,
		RunInstanceID:     bundle.RunInstanceID,
		DatasetID:         bundle.DatasetID,
		ComponentVersions: bundle.ComponentVersions,
		ComputedAt:        core.Now(),
	}

	if !level.IsValid() {
		report.Passed = false
		report.Blockers = append(report.Blockers, Reason{
			Code:   ReasonLevelUnknown,
			Detail: fmt.Sprintf("unknown eligibility level %q", level),
		})
		return report
	}

	findings := e.check(bundle)

	if level.IsGated() {
		report.Blockers = findings
		report.Passed = len(findings) == 0
	} else {
		// Exploratory always passes; evidence gaps surface as warnings.
		report.Warnings = findings
		report.Passed = true
	}
	return report
}

// check runs every criterion in fixed order and returns the findings.
func (e *Evaluator) check(bundle EvidenceBundle) []Reason {
	findings := []Reason{}
	add := func(code, detail string) {
		findings = append(findings, Reason{Code: code, Detail: detail})
	}

	// 1. Dataset snapshot present and STRICT.
	switch {
	case bundle.Snapshot == nil:
		add(ReasonSnapshotMissing, "no dataset snapshot attached to the evidence bundle")
	case bundle.Snapshot.Mode != dataset.ModeStrict:
		add(ReasonSnapshotNotStrict, fmt.Sprintf("snapshot mode is %s, gated levels require %s", bundle.Snapshot.Mode, dataset.ModeStrict))
	}

	// 2. Run identity present and internally consistent.
	if bundle.RunKey.IsEmpty() || bundle.RunInstanceID == "" || bundle.DatasetID.IsEmpty() {
		add(ReasonRunIdentityMissing, "run_key, run_instance_id and dataset_id must all be present")
	} else {
		if bundle.Snapshot != nil && bundle.Snapshot.DatasetID != bundle.DatasetID {
			add(ReasonRunIdentityInconsistent, fmt.Sprintf("bundle dataset_id %s does not match snapshot dataset_id %s", bundle.DatasetID, bundle.Snapshot.DatasetID))
		}
		if bundle.Attestation != nil && bundle.Attestation.RunKey != bundle.RunKey {
			add(ReasonRunIdentityInconsistent, "attestation run_key does not match bundle run_key")
		}
	}

	// 3. Component versions declared. Contents are opaque; only
	// presence is required.
	if len(bundle.ComponentVersions) == 0 {
		add(ReasonComponentVersionsMissing, "no versioned component identifiers declared")
	}

	// 4. Walk-forward runs need a verified attestation at the expected
	// schema version.
	if bundle.WalkForwardUsed {
		switch {
		case bundle.Attestation == nil:
			add(ReasonAttestationMissing, "walk_forward_used is declared but no fold-causality attestation is attached")
		case bundle.Attestation.SchemaVersion != e.cfg.AttestationSchemaVersion:
			add(ReasonAttestationSchemaMismatch, fmt.Sprintf("attestation schema %q, expected %q", bundle.Attestation.SchemaVersion, e.cfg.AttestationSchemaVersion))
		case !bundle.Attestation.TrainOnlyFitEnforced:
			add(ReasonAttestationNotEnforced, "attestation does not assert train-only fit enforcement")
		}
	}

	// 5. Declared data-snooping corrections need their seed/version
	// fields and enough actual simulations.
	if nc := bundle.NullCorrection; nc != nil {
		if nc.Seed == nil || nc.SeedVersion == "" {
			add(ReasonNullSeedMissing, fmt.Sprintf("null correction %q is missing its declared seed or seed version", nc.Method))
		}
		if nc.RequestedSims > 0 {
			fraction := float64(nc.ActualSims) / float64(nc.RequestedSims)
			if fraction < e.cfg.MinNullFraction {
				add(ReasonUnderpoweredNull, fmt.Sprintf("null correction %q ran %d of %d requested simulations (%.2f < %.2f)", nc.Method, nc.ActualSims, nc.RequestedSims, fraction, e.cfg.MinNullFraction))
			}
		}
	}

	return findings
}
