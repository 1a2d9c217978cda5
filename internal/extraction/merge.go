package extraction

import (
	"sort"
	"strings"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// merge folds parts, in order, into a fresh value. Scalars keep the first
// non-empty value; collections are unioned by value equality.
func merge(parts ...*model.ExtractedFields) *model.ExtractedFields {
	out := &model.ExtractedFields{}
	for _, p := range parts {
		if p == nil {
			continue
		}
		if isBlank(out.CaseID) {
			out.CaseID = strings.TrimSpace(p.CaseID)
		}
		if isBlank(out.Cause) {
			out.Cause = strings.TrimSpace(p.Cause)
		}
		if isBlank(out.RequestedAction) {
			out.RequestedAction = strings.TrimSpace(p.RequestedAction)
		}
		for _, a := range p.MonetaryAmounts {
			out.AddAmount(a)
		}
		for _, d := range p.Dates {
			out.AddDate(d)
		}
		for _, k := range sortedKeys(p.AdditionalFields) {
			out.SetAdditional(k, p.AdditionalFields[k])
		}
	}
	return out
}

// complement keeps every populated field of existing and fills the absent
// ones from extracted.
func complement(existing, extracted *model.ExtractedFields) *model.ExtractedFields {
	out := existing.Clone()
	if extracted == nil {
		return out
	}
	if isBlank(out.CaseID) {
		out.CaseID = extracted.CaseID
	}
	if isBlank(out.Cause) {
		out.Cause = extracted.Cause
	}
	if isBlank(out.RequestedAction) {
		out.RequestedAction = extracted.RequestedAction
	}
	if len(out.MonetaryAmounts) == 0 {
		for _, a := range extracted.MonetaryAmounts {
			out.AddAmount(a)
		}
	}
	if len(out.Dates) == 0 {
		for _, d := range extracted.Dates {
			out.AddDate(d)
		}
	}
	for _, k := range sortedKeys(extracted.AdditionalFields) {
		if isBlank(out.AdditionalFields[k]) {
			if out.AdditionalFields != nil {
				delete(out.AdditionalFields, k)
			}
			out.SetAdditional(k, extracted.AdditionalFields[k])
		}
	}
	return out
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
