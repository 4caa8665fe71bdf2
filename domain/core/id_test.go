package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestNewRunInstanceIDUniqueness tests that every execution mints a
// distinct instance ID of the expected ULID shape.
func TestNewRunInstanceIDUniqueness(t *testing.T) {
	seen := make(map[RunInstanceID]bool)
	for i := 0; i < 1000; i++ {
		id := NewRunInstanceID()
		if len(id) != 26 {
			t.Fatalf("Expected a 26-char ULID, got %q", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate run instance ID at iteration %d: %s", i, id)
		}
		seen[id] = true
	}
}

// TestParseHelpers tests the ID parsing helpers.
func TestParseHelpers(t *testing.T) {
	if _, err := ParseCandidateID("cand-1"); err != nil {
		t.Errorf("Expected valid candidate ID to parse, got %v", err)
	}
	if _, err := ParseCandidateID("   "); err == nil {
		t.Error("Expected blank candidate ID to fail")
	}
	if _, err := ParseReportID(""); err == nil {
		t.Error("Expected empty report ID to fail")
	}
	if _, err := ParseRunInstanceID(""); err == nil {
		t.Error("Expected empty run instance ID to fail")
	}
}
