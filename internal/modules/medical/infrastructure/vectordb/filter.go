package vectordb

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BuildFilterExpr compiles an equality-AND metadata filter into a Milvus
// boolean expression over the JSON metadata field, e.g.
//
//	metadata["specialty"] == "Cardiology" && metadata["category"] == "treatment"
//
// Keys are emitted in sorted order so the expression is deterministic. An
// empty filter yields an empty expression (no filtering).
func BuildFilterExpr(filter map[string]any) string {
	if len(filter) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, fmt.Sprintf(`%s["%s"] == %s`, fieldMetadata, escapeString(k), quoteValue(filter[k])))
	}
	return strings.Join(conds, " && ")
}

// quoteValue renders a filter value as a Milvus expr literal. Strings are
// quoted and escaped; numeric and boolean values pass through bare.
func quoteValue(v any) string {
	switch t := v.(type) {
	case string:
		return `"` + escapeString(t) + `"`
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return `"` + escapeString(fmt.Sprintf("%v", t)) + `"`
	}
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// normalizeMetadata drops nil values so they do not round-trip as JSON null
// and break equality filters.
func normalizeMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
