package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MonetaryAmount is a parsed money value together with the text it came from.
type MonetaryAmount struct {
	Value        decimal.Decimal `json:"value"`
	Currency     string          `json:"currency"`
	OriginalText string          `json:"original_text"`
}

// Equal reports value equality: same amount and same currency. The original
// text is provenance and does not take part in identity.
func (m MonetaryAmount) Equal(o MonetaryAmount) bool {
	return m.Value.Equal(o.Value) && strings.EqualFold(m.Currency, o.Currency)
}

// String renders the amount in a canonical form used for comparison.
func (m MonetaryAmount) String() string {
	return m.Value.StringFixed(2) + " " + strings.ToUpper(m.Currency)
}

// ExtractedFields is the normalized field set pulled from one document.
// An empty scalar means the field is absent.
type ExtractedFields struct {
	CaseID           string            `json:"case_id,omitempty"`
	Cause            string            `json:"cause,omitempty"`
	RequestedAction  string            `json:"requested_action,omitempty"`
	MonetaryAmounts  []MonetaryAmount  `json:"monetary_amounts,omitempty"`
	Dates            []string          `json:"dates,omitempty"`
	AdditionalFields map[string]string `json:"additional_fields,omitempty"`
}

// IsEmpty reports whether no field is populated.
func (f *ExtractedFields) IsEmpty() bool {
	return f == nil || f.PopulatedCount() == 0
}

// PopulatedCount counts populated scalars plus every collection entry.
func (f *ExtractedFields) PopulatedCount() int {
	if f == nil {
		return 0
	}
	n := 0
	for _, s := range []string{f.CaseID, f.Cause, f.RequestedAction} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	n += len(f.MonetaryAmounts) + len(f.Dates)
	for _, v := range f.AdditionalFields {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (f *ExtractedFields) Clone() *ExtractedFields {
	if f == nil {
		return nil
	}
	out := &ExtractedFields{
		CaseID:          f.CaseID,
		Cause:           f.Cause,
		RequestedAction: f.RequestedAction,
	}
	if len(f.MonetaryAmounts) > 0 {
		out.MonetaryAmounts = append([]MonetaryAmount(nil), f.MonetaryAmounts...)
	}
	if len(f.Dates) > 0 {
		out.Dates = append([]string(nil), f.Dates...)
	}
	if len(f.AdditionalFields) > 0 {
		out.AdditionalFields = make(map[string]string, len(f.AdditionalFields))
		for k, v := range f.AdditionalFields {
			out.AdditionalFields[k] = v
		}
	}
	return out
}

// AddAmount appends m unless an equal amount is already present.
func (f *ExtractedFields) AddAmount(m MonetaryAmount) {
	for _, existing := range f.MonetaryAmounts {
		if existing.Equal(m) {
			return
		}
	}
	f.MonetaryAmounts = append(f.MonetaryAmounts, m)
}

// AddDate appends d unless it is blank or already present.
func (f *ExtractedFields) AddDate(d string) {
	d = strings.TrimSpace(d)
	if d == "" {
		return
	}
	for _, existing := range f.Dates {
		if existing == d {
			return
		}
	}
	f.Dates = append(f.Dates, d)
}

// SetAdditional stores a non-blank value under key unless key is already set.
func (f *ExtractedFields) SetAdditional(key, value string) {
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	if f.AdditionalFields == nil {
		f.AdditionalFields = make(map[string]string)
	}
	if _, ok := f.AdditionalFields[key]; ok {
		return
	}
	f.AdditionalFields[key] = value
}

// StrategyConfidence is one strategy's self-assessment on one document.
type StrategyConfidence struct {
	StrategyName string `json:"strategy_name"`
	Confidence   int    `json:"confidence"`
}
