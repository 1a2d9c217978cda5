package quality

import (
	"context"

	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/model"
)

// Analyzer names.
const (
	AnalyzerThreshold  = "threshold"
	AnalyzerRegression = "regression"
)

// Analyzer classifies a page image and recommends an enhancement filter.
// Low quality is a normal classification and never an error.
type Analyzer interface {
	Name() string
	// Analyze decodes data and assesses it.
	Analyze(ctx context.Context, data []byte) (*model.QualityAssessment, error)
	// Classify returns only the quality level of data.
	Classify(ctx context.Context, data []byte) (model.QualityLevel, error)
	// Assess works from already extracted features.
	Assess(ctx context.Context, f model.ImagePropertyFeatures) (*model.QualityAssessment, error)
}

// NewAnalyzer builds the named analyzer over a model set.
func NewAnalyzer(name string, fe *imaging.FeatureExtractor, set *ModelSet) (Analyzer, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case AnalyzerThreshold, "":
		return NewThresholdAnalyzer(fe, set.Thresholds, set.Presets), nil
	case AnalyzerRegression:
		pred, err := NewParameterPredictor(set.Models)
		if err != nil {
			return nil, err
		}
		return NewRegressionAnalyzer(fe, pred, set.Thresholds), nil
	default:
		return nil, errUnknown("analyzer", name)
	}
}

// analyzeBytes runs feature extraction then the analyzer's Assess.
func analyzeBytes(ctx context.Context, fe *imaging.FeatureExtractor, a Analyzer, data []byte) (*model.QualityAssessment, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	f, err := fe.ExtractBytes(data)
	if err != nil {
		return nil, err
	}
	return a.Assess(ctx, f)
}

// normalizedLevels fills the [0,1] descriptive levels of an assessment.
func normalizedLevels(a *model.QualityAssessment, f model.ImagePropertyFeatures) {
	a.BlurScore = f.BlurScore
	a.NoiseLevel = model.Clamp01(f.NoiseEstimate / 50)
	a.ContrastLevel = model.Clamp01(f.Contrast / 127.5)
	a.SharpnessLevel = model.Clamp01(f.BlurScore / 1000)
}

// bandLevel maps a blur score onto the five ascending band minima.
func bandLevel(blur float64, bands []float64) model.QualityLevel {
	level := model.QualityQ1Poor
	for i, min := range bands {
		if blur >= min {
			level = model.QualityLevel(i)
		}
	}
	return level
}
