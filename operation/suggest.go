package operation

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// suggest returns a " (did you mean X?)" hint for a mistyped enum value, or "".
func suggest(value string, candidates []string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}

	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}

	matches := fuzzy.Find(value, lowered)
	if len(matches) == 0 {
		return ""
	}
	return " (did you mean " + candidates[matches[0].Index] + "?)"
}
