package dataset

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"goprove/domain/core"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// TableReader is the upstream table-scoped read interface the hasher
// consumes. Implementations must return an error wrapping
// core.ErrNotFound when the table does not exist.
type TableReader interface {
	ReadTableSchema(ctx context.Context, name string) (TableSchema, error)
	ReadTableRowsOrdered(ctx context.Context, name string, ordering Ordering) ([]Row, error)
}

// HashTables deterministically serializes the in-scope tables into a
// single content-addressed Snapshot.
//
// Per-table digests are computed concurrently but combined strictly in
// scope order, so parallelism never leaks into the dataset ID. A table
// that is absent and not marked optional fails the whole call with a
// scope error; a schema read failure fails with a hash-algorithm error.
// No partial snapshot is ever returned.
func HashTables(ctx context.Context, reader TableReader, scope []TableScope, mode Mode) (*Snapshot, error) {
	if len(scope) == 0 {
		return nil, core.NewValidationError("scope", "at least one table is required")
	}
	if mode != ModeStrict && mode != ModeFastDev {
		return nil, core.NewValidationError("mode", fmt.Sprintf("unknown mode %q", mode))
	}

	entries := make([]*TableDigestEntry, len(scope))
	g, gctx := errgroup.WithContext(ctx)
	for i, ts := range scope {
		g.Go(func() error {
			entry, err := hashTable(gctx, reader, ts, mode)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var names []string
	var combined strings.Builder
	var kept []TableDigestEntry
	for _, e := range entries {
		if e == nil {
			continue // optional table, absent
		}
		names = append(names, e.Table)
		combined.WriteString(e.Digest.String())
		kept = append(kept, *e)
	}
	if len(kept) == 0 {
		return nil, core.NewValidationError("scope", "all in-scope tables were absent")
	}

	return &Snapshot{
		ID:            core.SnapshotID(core.NewID()),
		DatasetID:     core.NewDatasetID([]byte(combined.String())),
		HashAlgorithm: core.HashAlgorithmSHA256,
		Mode:          mode,
		Scope:         names,
		Tables:        kept,
		CreatedAt:     core.Now(),
	}, nil
}

func hashTable(ctx context.Context, reader TableReader, ts TableScope, mode Mode) (*TableDigestEntry, error) {
	schema, err := reader.ReadTableSchema(ctx, ts.Name)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			if ts.Optional {
				return nil, nil
			}
			return nil, core.NewScopeError(ts.Name)
		}
		return nil, core.NewHashAlgorithmError(ts.Name, err)
	}
	if len(schema.Columns) == 0 {
		return nil, core.NewHashAlgorithmError(ts.Name, fmt.Errorf("schema has no columns"))
	}

	ordering := chooseOrdering(schema, ts)
	rows, err := reader.ReadTableRowsOrdered(ctx, ts.Name, ordering)
	if err != nil {
		return nil, core.NewHashAlgorithmError(ts.Name, err)
	}

	var digest core.TableDigest
	switch mode {
	case ModeStrict:
		digest = strictDigest(schema, ordering, rows)
	case ModeFastDev:
		digest, err = fastDevDigest(schema, ts, rows)
		if err != nil {
			return nil, core.NewHashAlgorithmError(ts.Name, err)
		}
	}

	return &TableDigestEntry{
		Table:  ts.Name,
		Digest: digest,
		Tier:   ordering.Tier,
		Rows:   len(rows),
	}, nil
}

// chooseOrdering picks the highest available deterministic ordering
// tier: declared primary key, then configured key columns, then the
// designated time column, then physical order as last resort.
func chooseOrdering(schema TableSchema, ts TableScope) Ordering {
	if len(schema.PrimaryKey) > 0 {
		return Ordering{Tier: TierPrimaryKey, Columns: schema.PrimaryKey}
	}
	if len(ts.KeyColumns) > 0 {
		return Ordering{Tier: TierKeyColumns, Columns: ts.KeyColumns}
	}
	if ts.TimeColumn != "" && columnIndex(schema, ts.TimeColumn) >= 0 {
		return Ordering{Tier: TierTimeColumn, Columns: []string{ts.TimeColumn}}
	}
	return Ordering{Tier: TierPhysical}
}

// strictDigest hashes the schema signature plus the full canonical row
// serialization. For every tier except physical the rows are re-sorted
// here by the tier's key columns with the whole canonical row as
// tiebreaker, so reader-side ordering and physical reorganization
// (compaction) cannot change the digest.
func strictDigest(schema TableSchema, ordering Ordering, rows []Row) core.TableDigest {
	sortedIdx := sortedColumnIndexes(schema)

	canonical := make([]string, len(rows))
	for i, row := range rows {
		canonical[i] = canonicalRow(row, sortedIdx)
	}

	if ordering.Tier != TierPhysical {
		keyIdx := make([]int, 0, len(ordering.Columns))
		for _, col := range ordering.Columns {
			if idx := columnIndex(schema, col); idx >= 0 {
				keyIdx = append(keyIdx, idx)
			}
		}
		sortKeys := make([]string, len(rows))
		for i, row := range rows {
			var parts []string
			for _, idx := range keyIdx {
				if idx < len(row) {
					parts = append(parts, CanonicalValue(row[idx]))
				}
			}
			sortKeys[i] = strings.Join(parts, valueSep) + valueSep + canonical[i]
		}
		order := make([]int, len(rows))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return sortKeys[order[a]] < sortKeys[order[b]] })
		resorted := make([]string, len(rows))
		for i, idx := range order {
			resorted[i] = canonical[idx]
		}
		canonical = resorted
	}

	h := sha256.New()
	h.Write([]byte(SchemaSignature(schema)))
	h.Write([]byte(rowSep))
	for _, row := range canonical {
		h.Write([]byte(row))
		h.Write([]byte(rowSep))
	}
	return core.TableDigest(core.Hash(fmt.Sprintf("%x", h.Sum(nil))))
}

// fastDevDigest hashes a cheap proxy: schema signature, row count and
// the min/max of the time column when one is configured.
func fastDevDigest(schema TableSchema, ts TableScope, rows []Row) (core.TableDigest, error) {
	h := sha256.New()
	h.Write([]byte(SchemaSignature(schema)))
	h.Write([]byte(rowSep))
	h.Write([]byte("fastdev:rows=" + strconv.Itoa(len(rows))))

	if ts.TimeColumn != "" {
		idx := columnIndex(schema, ts.TimeColumn)
		if idx >= 0 && len(rows) > 0 {
			values := make([]float64, 0, len(rows))
			for _, row := range rows {
				if idx >= len(row) {
					continue
				}
				if f, ok := timeValueAsFloat(row[idx]); ok {
					values = append(values, f)
				}
			}
			if len(values) > 0 {
				lo, err := stats.Min(values)
				if err != nil {
					return "", err
				}
				hi, err := stats.Max(values)
				if err != nil {
					return "", err
				}
				h.Write([]byte(";tmin=" + canonicalFloat(lo) + ";tmax=" + canonicalFloat(hi)))
			}
		}
	}
	return core.TableDigest(core.Hash(fmt.Sprintf("%x", h.Sum(nil)))), nil
}

func timeValueAsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case time.Time:
		return float64(x.UTC().UnixNano()), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
