package model

// ComparisonStatus is the verdict for one compared field.
type ComparisonStatus string

const (
	StatusMatch     ComparisonStatus = "match"
	StatusPartial   ComparisonStatus = "partial"
	StatusDifferent ComparisonStatus = "different"
	StatusMissing   ComparisonStatus = "missing"
)

// FieldComparison compares the authoritative (feed) value of a field against
// the value recognized from the scanned document.
type FieldComparison struct {
	FieldName     string           `json:"field_name"`
	XMLValue      string           `json:"xml_value"`
	OCRValue      string           `json:"ocr_value"`
	Status        ComparisonStatus `json:"status"`
	Similarity    float32          `json:"similarity"`
	OCRConfidence *float32         `json:"ocr_confidence,omitempty"`
}

// ComparisonResult aggregates field comparisons. OverallSimilarity is the
// arithmetic mean of the per-field similarities.
type ComparisonResult struct {
	FieldComparisons  []FieldComparison `json:"field_comparisons"`
	OverallSimilarity float32           `json:"overall_similarity"`
	MatchCount        int               `json:"match_count"`
	TotalFields       int               `json:"total_fields"`
}

// NewComparisonResult computes the aggregate figures for comparisons.
func NewComparisonResult(comparisons []FieldComparison) *ComparisonResult {
	res := &ComparisonResult{
		FieldComparisons: comparisons,
		TotalFields:      len(comparisons),
	}
	if len(comparisons) == 0 {
		return res
	}
	var sum float64
	for _, c := range comparisons {
		sum += float64(c.Similarity)
		if c.Status == StatusMatch {
			res.MatchCount++
		}
	}
	res.OverallSimilarity = float32(Clamp01(sum / float64(len(comparisons))))
	return res
}
