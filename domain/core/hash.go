package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAlgorithmSHA256 identifies the digest scheme used for content
// addressing. Bumping the scheme means introducing a new constant,
// never reusing this one.
const HashAlgorithmSHA256 = "sha256"

// DatasetIDHexLen is the truncated hex length of a whole-snapshot digest.
const DatasetIDHexLen = 16

// Hash represents a hex-encoded SHA-256 digest
type Hash string

// NewHash creates a new hash from raw bytes
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// TableDigest is the digest of one table's schema signature plus
	// canonical row serialization.
	TableDigest Hash
	// DatasetID is the whole-snapshot digest truncated to
	// DatasetIDHexLen hex characters. It is a pure function of the
	// canonicalized content of in-scope tables.
	DatasetID string
	// RunKey is the digest of a run's semantic payload with excluded
	// keys stripped. Identical semantics always yield an identical key.
	RunKey Hash
	// ContentHash addresses artifact bytes in the lineage graph.
	ContentHash Hash
)

// Constructors
func NewTableDigest(data []byte) TableDigest { return TableDigest(NewHash(data)) }
func NewRunKey(data []byte) RunKey           { return RunKey(NewHash(data)) }
func NewContentHash(data []byte) ContentHash { return ContentHash(NewHash(data)) }

// NewDatasetID truncates a full snapshot digest down to the fixed
// dataset identifier length.
func NewDatasetID(data []byte) DatasetID {
	return DatasetID(NewHash(data)[:DatasetIDHexLen])
}

// String conversions
func (d TableDigest) String() string { return Hash(d).String() }
func (d DatasetID) String() string   { return string(d) }
func (k RunKey) String() string      { return Hash(k).String() }
func (c ContentHash) String() string { return Hash(c).String() }

// Emptiness checks
func (d DatasetID) IsEmpty() bool   { return d == "" }
func (k RunKey) IsEmpty() bool      { return k == "" }
func (c ContentHash) IsEmpty() bool { return c == "" }
