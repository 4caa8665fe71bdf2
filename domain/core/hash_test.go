package core

import (
	"testing"
)

// TestNewHashDeterminism tests that identical bytes hash identically.
func TestNewHashDeterminism(t *testing.T) {
	a := NewHash([]byte("content"))
	b := NewHash([]byte("content"))
	if !a.Equals(b) {
		t.Errorf("Identical bytes hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected a 64-char hex digest, got %d chars", len(a))
	}

	c := NewHash([]byte("content2"))
	if a.Equals(c) {
		t.Error("Different bytes produced the same hash")
	}
}

// TestNewDatasetIDTruncation tests the fixed dataset ID length.
func TestNewDatasetIDTruncation(t *testing.T) {
	id := NewDatasetID([]byte("snapshot digest material"))
	if len(id) != DatasetIDHexLen {
		t.Errorf("Expected dataset ID of length %d, got %d", DatasetIDHexLen, len(id))
	}

	full := NewHash([]byte("snapshot digest material"))
	if string(id) != string(full[:DatasetIDHexLen]) {
		t.Error("Dataset ID is not a prefix of the full digest")
	}
}

// TestHashEmptiness tests emptiness checks across hash types.
func TestHashEmptiness(t *testing.T) {
	if !Hash("").IsEmpty() {
		t.Error("Expected empty hash to be empty")
	}
	if Hash("abc").IsEmpty() {
		t.Error("Expected non-empty hash to not be empty")
	}
	if !RunKey("").IsEmpty() || !DatasetID("").IsEmpty() || !ContentHash("").IsEmpty() {
		t.Error("Expected empty typed hashes to be empty")
	}
}
