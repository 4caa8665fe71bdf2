package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrCandidateNotFound = fmt.Errorf("%w: candidate", ErrNotFound)
	ErrReportNotFound    = fmt.Errorf("%w: eligibility report", ErrNotFound)
	ErrSnapshotNotFound  = fmt.Errorf("%w: dataset snapshot", ErrNotFound)
	ErrArtifactNotFound  = fmt.Errorf("%w: artifact", ErrNotFound)

	// Hashing errors - fatal, never retried, no partial hash is returned
	ErrScope         = errors.New("table scope violation")
	ErrHashAlgorithm = errors.New("schema signature extraction failed")

	// Attestation errors - fatal to the attestation, other state untouched
	ErrAttestation = errors.New("attestation evidence inconsistent")

	// Promotion errors - rejected state change, no partial write occurs
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrMissingEvidence   = errors.New("missing or mismatched eligibility evidence")

	// Store discipline errors
	ErrImmutable = errors.New("row is immutable")

	// Audit errors - NotAccepted is a normal precondition failure,
	// BrokenChain is a corruption alarm
	ErrNotAccepted = errors.New("candidate is not accepted")
	ErrBrokenChain = errors.New("evidentiary chain broken")
)

// Error constructors with context
func NewScopeError(table string) error {
	return fmt.Errorf("%w: table %q not present and not optional", ErrScope, table)
}

func NewHashAlgorithmError(table string, cause error) error {
	return fmt.Errorf("%w: table %q: %v", ErrHashAlgorithm, table, cause)
}

func NewAttestationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrAttestation, reason)
}

func NewInvalidTransitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func NewMissingEvidenceError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMissingEvidence, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsHashingError(err error) bool {
	return errors.Is(err, ErrScope) || errors.Is(err, ErrHashAlgorithm)
}

func IsTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrMissingEvidence)
}

func IsAuditError(err error) bool {
	return errors.Is(err, ErrNotAccepted) || errors.Is(err, ErrBrokenChain)
}
