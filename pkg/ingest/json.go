package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// decodeJSON collects every string value, object keys visited in sorted
// order, one value per line. Numbers, booleans and keys are dropped.
func decodeJSON(src string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		return "", fmt.Errorf("parse json: %w", err)
	}

	var lines []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				lines = append(lines, s)
			}
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}
	walk(v)

	return strings.Join(lines, "\n"), nil
}
