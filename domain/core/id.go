package core

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered
// generation, falling back to v4 if v7 is unavailable.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	CandidateID ID
	ReportID    ID
	ArtifactID  ID
	SnapshotID  ID
	// RunInstanceID identifies exactly one pipeline execution. It may
	// embed a timestamp and is never hashed into a RunKey.
	RunInstanceID string
	// EventID is the monotonic sequence number of a governance event.
	EventID int64
)

// String conversions for domain IDs
func (id CandidateID) String() string   { return ID(id).String() }
func (id ReportID) String() string      { return ID(id).String() }
func (id ArtifactID) String() string    { return ID(id).String() }
func (id SnapshotID) String() string    { return ID(id).String() }
func (id RunInstanceID) String() string { return string(id) }

// NewRunInstanceID mints a fresh ULID-based instance identifier.
// ULIDs are time-ordered, which makes instance rows naturally sortable,
// but the embedded timestamp is exactly why instance IDs are excluded
// from run-key hashing.
func NewRunInstanceID() RunInstanceID {
	return RunInstanceID(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String())
}

// ParseCandidateID parses a string into CandidateID
func ParseCandidateID(s string) (CandidateID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("candidate ID cannot be empty")
	}
	return CandidateID(s), nil
}

// ParseReportID parses a string into ReportID
func ParseReportID(s string) (ReportID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("report ID cannot be empty")
	}
	return ReportID(s), nil
}

// ParseRunInstanceID parses a string into RunInstanceID
func ParseRunInstanceID(s string) (RunInstanceID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run instance ID cannot be empty")
	}
	return RunInstanceID(s), nil
}
