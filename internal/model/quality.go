package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// QualityLevel is the ordinal fitness of an image for recognition.
// Lower values are worse.
type QualityLevel int

const (
	QualityQ1Poor QualityLevel = iota
	QualityQ2MediumPoor
	QualityQ3Low
	QualityQ4VeryLow
	QualityPristine
)

var qualityLevelNames = map[QualityLevel]string{
	QualityQ1Poor:       "Q1_Poor",
	QualityQ2MediumPoor: "Q2_MediumPoor",
	QualityQ3Low:        "Q3_Low",
	QualityQ4VeryLow:    "Q4_VeryLow",
	QualityPristine:     "Pristine",
}

func (l QualityLevel) String() string {
	if s, ok := qualityLevelNames[l]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText renders the level by name.
func (l QualityLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name.
func (l *QualityLevel) UnmarshalText(b []byte) error {
	v, err := ParseQualityLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseQualityLevel parses a level name case-insensitively.
func ParseQualityLevel(s string) (QualityLevel, error) {
	for lvl, name := range qualityLevelNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return lvl, nil
		}
	}
	return QualityQ1Poor, eris.Errorf("model: unknown quality level %q", s)
}

// QualityAssessment is the per-image quality verdict produced by an analyzer.
// It is not mutated after creation.
type QualityAssessment struct {
	QualityLevel      QualityLevel     `json:"quality_level"`
	Confidence        float32          `json:"confidence"`
	BlurScore         float64          `json:"blur_score"`
	NoiseLevel        float64          `json:"noise_level"`
	ContrastLevel     float64          `json:"contrast_level"`
	SharpnessLevel    float64          `json:"sharpness_level"`
	RecommendedFilter FilterType       `json:"recommended_filter"`
	Parameters        FilterParameters `json:"parameters,omitempty"`
	Diagnostics       map[string]any   `json:"diagnostics,omitempty"`
}

// Clamp01 bounds v to [0,1].
func Clamp01(v float64) float64 {
	return ClampRange(v, 0, 1)
}

// ClampRange bounds v to [lo,hi].
// NaN maps to lo.
func ClampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
