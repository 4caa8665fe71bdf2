package dataset

import (
	"goprove/domain/core"
)

// Mode selects how much table content the hasher consumes.
type Mode string

const (
	// ModeStrict hashes full canonical row content. Only STRICT
	// snapshots are accepted at gated eligibility levels.
	ModeStrict Mode = "STRICT"
	// ModeFastDev hashes a cheap proxy (row count plus min/max of the
	// time column) for iteration speed.
	ModeFastDev Mode = "FAST_DEV"
)

// OrderingTier records which deterministic row-ordering rule was chosen
// for a table. The tier itself is part of the audit record.
type OrderingTier string

const (
	TierPrimaryKey OrderingTier = "primary_key"
	TierKeyColumns OrderingTier = "key_columns"
	TierTimeColumn OrderingTier = "time_column"
	TierPhysical   OrderingTier = "physical"
)

// Column describes one declared column of an upstream table.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchema is the declared shape of one upstream table.
type TableSchema struct {
	Name       string   `json:"name"`
	Columns    []Column `json:"columns"`
	PrimaryKey []string `json:"primary_key,omitempty"`
}

// Row holds one logical row's values aligned with TableSchema.Columns.
type Row []any

// Ordering is the ordering request passed to the table reader. The
// hasher re-sorts canonically for every tier except physical, so reader
// ordering is a hint, not a correctness requirement.
type Ordering struct {
	Tier    OrderingTier `json:"tier"`
	Columns []string     `json:"columns,omitempty"`
}

// TableScope configures one table of the snapshot allowlist.
type TableScope struct {
	Name       string   `yaml:"name" json:"name"`
	Optional   bool     `yaml:"optional" json:"optional"`
	KeyColumns []string `yaml:"key_columns" json:"key_columns,omitempty"`
	TimeColumn string   `yaml:"time_column" json:"time_column,omitempty"`
}

// TableDigestEntry pairs a table with its digest and the ordering tier
// the hasher settled on.
type TableDigestEntry struct {
	Table  string           `json:"table"`
	Digest core.TableDigest `json:"digest"`
	Tier   OrderingTier     `json:"tier"`
	Rows   int              `json:"rows"`
}

// Snapshot represents the logical content of the in-scope tables at a
// point in time. Never mutated after creation.
type Snapshot struct {
	ID            core.SnapshotID    `json:"id"`
	DatasetID     core.DatasetID     `json:"dataset_id"`
	HashAlgorithm string             `json:"hash_algorithm"`
	Mode          Mode               `json:"mode"`
	Scope         []string           `json:"scope"`
	Tables        []TableDigestEntry `json:"tables"`
	CreatedAt     core.Timestamp     `json:"created_at"`
}
