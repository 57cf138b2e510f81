package vanilla

import (
	"fmt"
	"strings"
)

func controlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "mc-" + trimmed
}

// sanitizeClassList drops tokens in the reserved mc- namespace so schema hints
// cannot restyle chrome elements.
func sanitizeClassList(value string) string {
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "mc-") {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
