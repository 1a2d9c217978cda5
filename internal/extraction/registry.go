package extraction

import (
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultStrategyNames is the registration order used when none is configured.
// Ties in confidence resolve in this order.
var DefaultStrategyNames = []string{NameStructured, NameContextual, NameTableBased, NameSearch, NameComplement}

// NewStrategies builds strategies by name in the given order. An empty list
// yields the default set.
func NewStrategies(names []string, phraseThreshold float64) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultStrategyNames
	}
	out := make([]Strategy, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if seen[name] {
			return nil, eris.Errorf("extraction: strategy %q listed twice", name)
		}
		seen[name] = true
		switch name {
		case NameStructured:
			out = append(out, NewStructured())
		case NameContextual:
			out = append(out, NewContextual())
		case NameTableBased, "table":
			out = append(out, NewTableBased())
		case NameSearch:
			out = append(out, NewSearch(phraseThreshold))
		case NameComplement:
			out = append(out, NewComplement())
		default:
			return nil, eris.Errorf("extraction: unknown strategy %q", raw)
		}
	}
	return out, nil
}
