package dto

import (
	"encoding/json"
	"strings"
)

// ParseStringList normalizes a form value that may arrive either as a
// JSON-array-encoded string (`["apis","sql"]`) or as a plain
// comma-separated string. Blank entries are dropped so the services only
// ever see a clean ordered list.
func ParseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return cleanStrings(items)
		}
		// fall through: treat a malformed array literal as a plain value
	}

	return cleanStrings(strings.Split(raw, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
