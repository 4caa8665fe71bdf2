package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// NullToken is the single fixed token every NaN/nil value normalizes to
// before hashing.
const NullToken = "∅"

const (
	valueSep = "\x1f"
	rowSep   = "\n"
)

// CanonicalValue serializes one cell value into its canonical string
// form. Floats use 'g'/17 so the representation round-trips exactly and
// never depends on platform formatting; NaN and nil collapse to
// NullToken; negative zero collapses to zero.
func CanonicalValue(v any) string {
	switch x := v.(type) {
	case nil:
		return NullToken
	case float64:
		return canonicalFloat(x)
	case float32:
		return canonicalFloat(float64(x))
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case string:
		return strconv.Quote(x)
	case fmt.Stringer:
		return strconv.Quote(x.String())
	default:
		return strconv.Quote(fmt.Sprintf("%v", x))
	}
}

func canonicalFloat(f float64) string {
	if math.IsNaN(f) {
		return NullToken
	}
	if f == 0 {
		f = 0 // normalize -0
	}
	return strconv.FormatFloat(f, 'g', 17, 64)
}

// SchemaSignature produces the canonical schema string for a table:
// column name/type pairs sorted by column name.
func SchemaSignature(schema TableSchema) string {
	cols := make([]Column, len(schema.Columns))
	copy(cols, schema.Columns)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })

	var b strings.Builder
	b.WriteString("table=")
	b.WriteString(schema.Name)
	b.WriteString(";cols=")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Name)
		b.WriteString(":")
		b.WriteString(c.Type)
	}
	return b.String()
}

// canonicalRow serializes one row with values emitted in sorted-column
// order, so physical column order never influences the digest.
func canonicalRow(row Row, sortedIdx []int) string {
	parts := make([]string, len(sortedIdx))
	for i, idx := range sortedIdx {
		if idx < len(row) {
			parts[i] = CanonicalValue(row[idx])
		} else {
			parts[i] = NullToken
		}
	}
	return strings.Join(parts, valueSep)
}

// sortedColumnIndexes returns the indexes of schema columns in
// name-sorted order.
func sortedColumnIndexes(schema TableSchema) []int {
	idx := make([]int, len(schema.Columns))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return schema.Columns[idx[i]].Name < schema.Columns[idx[j]].Name
	})
	return idx
}

// columnIndex finds the position of a named column, or -1.
func columnIndex(schema TableSchema, name string) int {
	for i, c := range schema.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
