package identity

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Excluded key names, matched exactly at any nesting depth. Anything
// that varies per execution without changing semantics belongs here.
var excludedKeys = map[string]struct{}{
	"timestamp":       {},
	"created_at":      {},
	"updated_at":      {},
	"as_of":           {},
	"path":            {},
	"output_path":     {},
	"output_dir":      {},
	"run_instance_id": {},
}

// Excluded key suffixes, matched at any nesting depth.
var excludedSuffixes = []string{"_at", "_ts", "_path", "_dir"}

// IsExcludedKey reports whether a payload key is stripped before
// run-key hashing.
func IsExcludedKey(key string) bool {
	if _, ok := excludedKeys[key]; ok {
		return true
	}
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// StripExcludedKeys returns a deep copy of the payload with every
// excluded key removed, at any nesting depth.
func StripExcludedKeys(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if IsExcludedKey(k) {
			continue
		}
		out[k] = stripValue(v)
	}
	return out
}

func stripValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return StripExcludedKeys(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = stripValue(e)
		}
		return out
	default:
		return v
	}
}

// CanonicalJSON serializes a payload with all object keys sorted and
// floats under a fixed formatting rule, so the same semantic content
// always produces the same bytes on every platform.
func CanonicalJSON(v any) ([]byte, error) {
	var b strings.Builder
	if err := writeCanonical(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func writeCanonical(b *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case string:
		b.WriteString(strconv.Quote(x))
	case float64:
		return writeCanonicalFloat(b, x)
	case float32:
		return writeCanonicalFloat(b, float64(x))
	case int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		b.WriteString(strconv.FormatUint(x, 10))
	case []any:
		b.WriteString("[")
		for i, e := range x {
			if i > 0 {
				b.WriteString(",")
			}
			if err := writeCanonical(b, e); err != nil {
				return err
			}
		}
		b.WriteString("]")
	case []string:
		b.WriteString("[")
		for i, e := range x {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(e))
		}
		b.WriteString("]")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(":")
			if err := writeCanonical(b, x[k]); err != nil {
				return err
			}
		}
		b.WriteString("}")
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(":")
			b.WriteString(strconv.Quote(x[k]))
		}
		b.WriteString("}")
	default:
		return fmt.Errorf("canonical json: unsupported type %T", v)
	}
	return nil
}

func writeCanonicalFloat(b *strings.Builder, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canonical json: non-finite float %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		// Integral floats serialize without an exponent or decimal
		// point so 1.0 and 1 hash identically.
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	b.WriteString(strconv.FormatFloat(f, 'g', 17, 64))
	return nil
}
