package compare

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// DefaultPartialThreshold is the similarity at or above which two differing
// values are reported as a partial match.
const DefaultPartialThreshold = 0.8

// Canonical field names used in comparisons.
const (
	FieldCaseID          = "case_id"
	FieldCause           = "cause"
	FieldRequestedAction = "requested_action"
	FieldMonetaryAmounts = "monetary_amounts"
	FieldDates           = "dates"
)

// Comparer compares field values. It is stateless apart from its threshold
// and safe for concurrent use.
type Comparer struct {
	partial float64
}

// NewComparer creates a Comparer. A threshold outside (0,1] uses the default.
func NewComparer(partialThreshold float64) *Comparer {
	if partialThreshold <= 0 || partialThreshold > 1 {
		partialThreshold = DefaultPartialThreshold
	}
	return &Comparer{partial: partialThreshold}
}

// CompareField compares the authoritative value a with the recognized value b.
// Empty strings are absent values.
func (c *Comparer) CompareField(ctx context.Context, name, a, b string, ocrConfidence *float32) (model.FieldComparison, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return model.FieldComparison{}, err
	}
	if strings.TrimSpace(name) == "" {
		return model.FieldComparison{}, eris.Wrap(model.ErrComparisonInputInvalid, "compare: field name is required")
	}

	fc := model.FieldComparison{FieldName: name, XMLValue: a, OCRValue: b, OCRConfidence: ocrConfidence}
	aEmpty, bEmpty := strings.TrimSpace(a) == "", strings.TrimSpace(b) == ""
	switch {
	case aEmpty && bEmpty:
		fc.Status, fc.Similarity = model.StatusMatch, 1
	case aEmpty || bEmpty:
		fc.Status, fc.Similarity = model.StatusMissing, 0
	case a == b:
		fc.Status, fc.Similarity = model.StatusMatch, 1
	default:
		sim := Similarity(Fold(a), Fold(b))
		fc.Similarity = float32(sim)
		if sim >= c.partial {
			fc.Status = model.StatusPartial
		} else {
			fc.Status = model.StatusDifferent
		}
	}
	return fc, nil
}

// Reconcile compares every field of an authoritative record against the
// fields extracted from the scanned document.
func (c *Comparer) Reconcile(ctx context.Context, authoritative, extracted *model.ExtractedFields, ocrConfidence *float32) (*model.ComparisonResult, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	if authoritative == nil || extracted == nil {
		return nil, eris.Wrap(model.ErrComparisonInputInvalid, "compare: both field sets are required")
	}

	pairs := []struct{ name, a, b string }{
		{FieldCaseID, authoritative.CaseID, extracted.CaseID},
		{FieldCause, authoritative.Cause, extracted.Cause},
		{FieldRequestedAction, authoritative.RequestedAction, extracted.RequestedAction},
		{FieldMonetaryAmounts, amountsKey(authoritative.MonetaryAmounts), amountsKey(extracted.MonetaryAmounts)},
		{FieldDates, datesKey(authoritative.Dates), datesKey(extracted.Dates)},
	}
	for _, k := range additionalKeys(authoritative, extracted) {
		pairs = append(pairs, struct{ name, a, b string }{k, authoritative.AdditionalFields[k], extracted.AdditionalFields[k]})
	}

	comparisons := make([]model.FieldComparison, 0, len(pairs))
	for _, p := range pairs {
		fc, err := c.CompareField(ctx, p.name, p.a, p.b, ocrConfidence)
		if err != nil {
			return nil, err
		}
		comparisons = append(comparisons, fc)
	}
	res := model.NewComparisonResult(comparisons)

	zap.L().Debug("compare: reconciled",
		zap.Int("fields", res.TotalFields),
		zap.Int("matches", res.MatchCount),
		zap.Float32("overall", res.OverallSimilarity),
	)
	return res, nil
}

// amountsKey renders amounts in a canonical, order-independent form.
func amountsKey(amounts []model.MonetaryAmount) string {
	parts := make([]string, 0, len(amounts))
	for _, m := range amounts {
		parts = append(parts, m.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func datesKey(dates []string) string {
	parts := make([]string, 0, len(dates))
	for _, d := range dates {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, d)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func additionalKeys(a, b *model.ExtractedFields) []string {
	seen := make(map[string]struct{}, len(a.AdditionalFields)+len(b.AdditionalFields))
	for k := range a.AdditionalFields {
		seen[k] = struct{}{}
	}
	for k := range b.AdditionalFields {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
