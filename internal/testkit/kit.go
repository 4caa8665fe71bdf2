// Package testkit provides deterministic fixtures: an in-memory table
// source with synthetic bar data and ready-made evidence bundles.
// Everything is seeded so fixtures hash identically across runs.
package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"goprove/domain/attestation"
	"goprove/domain/core"
	"goprove/domain/dataset"
	"goprove/domain/eligibility"
	"goprove/domain/identity"

	"gonum.org/v1/gonum/stat"
)

// MemoryTableSource is an in-memory table store implementing the
// hasher's read interface.
type MemoryTableSource struct {
	schemas map[string]dataset.TableSchema
	rows    map[string][]dataset.Row
}

// NewMemoryTableSource creates an empty source.
func NewMemoryTableSource() *MemoryTableSource {
	return &MemoryTableSource{
		schemas: make(map[string]dataset.TableSchema),
		rows:    make(map[string][]dataset.Row),
	}
}

// AddTable registers a table with its rows.
func (s *MemoryTableSource) AddTable(schema dataset.TableSchema, rows []dataset.Row) {
	s.schemas[schema.Name] = schema
	s.rows[schema.Name] = rows
}

// SetCell overwrites one cell value.
func (s *MemoryTableSource) SetCell(table string, row, col int, value any) {
	s.rows[table][row][col] = value
}

// Compact reverses the physical row order without changing logical
// content, emulating a storage-layer reorganization.
func (s *MemoryTableSource) Compact(table string) {
	rows := s.rows[table]
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// ReadTableSchema implements dataset.TableReader.
func (s *MemoryTableSource) ReadTableSchema(_ context.Context, name string) (dataset.TableSchema, error) {
	schema, ok := s.schemas[name]
	if !ok {
		return dataset.TableSchema{}, core.NewNotFoundError("table", name)
	}
	return schema, nil
}

// ReadTableRowsOrdered implements dataset.TableReader. Rows come back
// in physical order; the hasher re-sorts for non-physical tiers.
func (s *MemoryTableSource) ReadTableRowsOrdered(_ context.Context, name string, _ dataset.Ordering) ([]dataset.Row, error) {
	rows, ok := s.rows[name]
	if !ok {
		return nil, core.NewNotFoundError("table", name)
	}
	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		out[i] = append(dataset.Row(nil), r...)
	}
	return out, nil
}

// BarsSchema is the schema of the synthetic bars table.
func BarsSchema() dataset.TableSchema {
	return dataset.TableSchema{
		Name: "bars",
		Columns: []dataset.Column{
			{Name: "t", Type: "timestamp"},
			{Name: "symbol", Type: "text"},
			{Name: "close", Type: "float"},
			{Name: "volume", Type: "float"},
		},
	}
}

// BarsScope is the scope entry matching BarsSchema.
func BarsScope() dataset.TableScope {
	return dataset.TableScope{Name: "bars", TimeColumn: "t", KeyColumns: []string{"t", "symbol"}}
}

// GenerateBars produces n deterministic synthetic bars from the seed.
func GenerateBars(n int, seed int64) []dataset.Row {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	price := 100.0

	rows := make([]dataset.Row, n)
	for i := 0; i < n; i++ {
		price *= 1 + rng.NormFloat64()*0.01
		rows[i] = dataset.Row{
			base.Add(time.Duration(i) * time.Minute),
			"TEST",
			price,
			float64(1000 + rng.Intn(9000)),
		}
	}
	return rows
}

// SummarizeBars computes declared summary fields (mean/stddev of the
// close column) the way the statistics layer would report them.
func SummarizeBars(rows []dataset.Row) map[string]any {
	closes := make([]float64, 0, len(rows))
	for _, r := range rows {
		if f, ok := r[2].(float64); ok {
			closes = append(closes, f)
		}
	}
	return map[string]any{
		"sample_count": len(closes),
		"mean_close":   stat.Mean(closes, nil),
		"stddev_close": stat.StdDev(closes, nil),
	}
}

// Folds returns k valid walk-forward fold windows respecting the
// embargo.
func Folds(k int, embargo time.Duration) []attestation.FoldWindow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	folds := make([]attestation.FoldWindow, k)
	for i := 0; i < k; i++ {
		trainStart := start.AddDate(0, i, 0)
		trainEnd := trainStart.AddDate(0, 1, 0)
		testStart := trainEnd.Add(embargo)
		folds[i] = attestation.FoldWindow{
			FoldID:     fmt.Sprintf("fold-%d", i),
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testStart.AddDate(0, 0, 14),
		}
	}
	return folds
}

// PassingBundle builds an evidence bundle that clears every gated
// criterion: STRICT snapshot, verified attestation, adequately powered
// null correction and declared component versions.
func PassingBundle(ident identity.RunIdentity, snapshot *dataset.Snapshot) eligibility.EvidenceBundle {
	att, err := attestation.Build(ident, attestation.Evidence{
		Folds:          Folds(3, 24*time.Hour),
		PurgeApplied:   true,
		Embargo:        24 * time.Hour,
		EmbargoApplied: true,
	})
	if err != nil {
		panic(fmt.Sprintf("testkit: building attestation: %v", err))
	}

	nullSeed := uint64(42)
	return eligibility.EvidenceBundle{
		RunKey:        ident.RunKey,
		RunInstanceID: ident.RunInstanceID,
		DatasetID:     snapshot.DatasetID,
		Snapshot:      snapshot,
		ComponentVersions: map[string]string{
			"hasher":    "1.0.0",
			"evaluator": "1.0.0",
			"stats":     "2.3.1",
		},
		WalkForwardUsed: true,
		Attestation:     att,
		NullCorrection: &eligibility.NullCorrection{
			Method:        "reality_check",
			Seed:          &nullSeed,
			SeedVersion:   "seed-v1",
			RequestedSims: 1000,
			ActualSims:    1000,
		},
	}
}
