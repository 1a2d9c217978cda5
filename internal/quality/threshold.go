package quality

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/model"
)

// ThresholdConfidence is reported by every rule-based assessment.
const ThresholdConfidence float32 = 0.85

// ThresholdAnalyzer classifies with fixed cut points on blur and noise and
// recommends a filter from a lookup on level, noise severity and contrast.
// Blur severity is reported in diagnostics only: with the default cut
// points every Q1 image is severely blurred, so it carries no information
// the level does not.
type ThresholdAnalyzer struct {
	fe      *imaging.FeatureExtractor
	th      Thresholds
	presets Presets
}

// NewThresholdAnalyzer creates a ThresholdAnalyzer.
func NewThresholdAnalyzer(fe *imaging.FeatureExtractor, th Thresholds, presets Presets) *ThresholdAnalyzer {
	if fe == nil {
		fe = imaging.NewFeatureExtractor(imaging.FeatureConfig{})
	}
	return &ThresholdAnalyzer{fe: fe, th: th, presets: presets}
}

// Name implements Analyzer.
func (a *ThresholdAnalyzer) Name() string { return AnalyzerThreshold }

// Analyze implements Analyzer.
func (a *ThresholdAnalyzer) Analyze(ctx context.Context, data []byte) (*model.QualityAssessment, error) {
	return analyzeBytes(ctx, a.fe, a, data)
}

// Classify implements Analyzer.
func (a *ThresholdAnalyzer) Classify(ctx context.Context, data []byte) (model.QualityLevel, error) {
	qa, err := a.Analyze(ctx, data)
	if err != nil {
		return model.QualityQ1Poor, err
	}
	return qa.QualityLevel, nil
}

// Level applies the cut points to a feature set.
func (a *ThresholdAnalyzer) Level(f model.ImagePropertyFeatures) model.QualityLevel {
	blur, noise := f.BlurScore, f.NoiseEstimate
	switch {
	case blur >= a.th.PristineBlur && noise <= a.th.PristineNoise:
		return model.QualityPristine
	case blur >= a.th.Q4Blur && noise <= a.th.Q4Noise:
		return model.QualityQ4VeryLow
	case blur >= a.th.Q3Blur && noise <= a.th.Q3Noise:
		return model.QualityQ3Low
	case blur >= a.th.Q2Blur:
		return model.QualityQ2MediumPoor
	default:
		return model.QualityQ1Poor
	}
}

// Recommend looks up the filter for a level. Q1 takes advanced enhancement
// when noise is severe and simple enhancement otherwise; Q2 and Q3 take
// simple enhancement only when contrast is low.
func (a *ThresholdAnalyzer) Recommend(level model.QualityLevel, f model.ImagePropertyFeatures) model.FilterType {
	noiseSevere := f.NoiseEstimate > a.th.SevereNoise
	switch level {
	case model.QualityQ1Poor:
		if noiseSevere {
			return model.FilterAdvancedEnhancement
		}
		return model.FilterSimpleEnhancement
	case model.QualityQ2MediumPoor, model.QualityQ3Low:
		if f.Contrast < a.th.LowContrast {
			return model.FilterSimpleEnhancement
		}
		return model.FilterNone
	default:
		return model.FilterNone
	}
}

// Assess implements Analyzer.
func (a *ThresholdAnalyzer) Assess(ctx context.Context, f model.ImagePropertyFeatures) (*model.QualityAssessment, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	level := a.Level(f)
	ft := a.Recommend(level, f)
	params, err := a.presets.Materialize(ft)
	if err != nil {
		return nil, err
	}

	qa := &model.QualityAssessment{
		QualityLevel:      level,
		Confidence:        ThresholdConfidence,
		RecommendedFilter: ft,
		Parameters:        params,
		Diagnostics: map[string]any{
			"analyzer":     AnalyzerThreshold,
			"blur_severe":  f.BlurScore < a.th.SevereBlur,
			"noise_severe": f.NoiseEstimate > a.th.SevereNoise,
			"edge_density": f.EdgeDensity,
		},
	}
	normalizedLevels(qa, f)

	zap.L().Debug("quality: threshold assessment",
		zap.String("level", level.String()),
		zap.String("filter", ft.String()),
		zap.Float64("blur", f.BlurScore),
		zap.Float64("noise", f.NoiseEstimate),
	)
	return qa, nil
}
