package quality

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/imaging"
	"github.com/sells-group/regdoc-cli/internal/model"
)

// RegressionConfidence reflects validation quality of the trained models.
const RegressionConfidence float32 = 0.92

// RegressionAnalyzer classifies from blur bands and predicts continuous
// enhancement parameters with a ParameterPredictor.
type RegressionAnalyzer struct {
	fe    *imaging.FeatureExtractor
	pred  *ParameterPredictor
	bands []float64
}

// NewRegressionAnalyzer creates a RegressionAnalyzer.
func NewRegressionAnalyzer(fe *imaging.FeatureExtractor, pred *ParameterPredictor, th Thresholds) *RegressionAnalyzer {
	if fe == nil {
		fe = imaging.NewFeatureExtractor(imaging.FeatureConfig{})
	}
	bands := th.BlurBands
	if len(bands) != 5 {
		bands = DefaultThresholds().BlurBands
	}
	return &RegressionAnalyzer{fe: fe, pred: pred, bands: append([]float64(nil), bands...)}
}

// Name implements Analyzer.
func (a *RegressionAnalyzer) Name() string { return AnalyzerRegression }

// Analyze implements Analyzer.
func (a *RegressionAnalyzer) Analyze(ctx context.Context, data []byte) (*model.QualityAssessment, error) {
	return analyzeBytes(ctx, a.fe, a, data)
}

// Classify implements Analyzer.
func (a *RegressionAnalyzer) Classify(ctx context.Context, data []byte) (model.QualityLevel, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return model.QualityQ1Poor, err
	}
	f, err := a.fe.ExtractBytes(data)
	if err != nil {
		return model.QualityQ1Poor, err
	}
	return bandLevel(f.BlurScore, a.bands), nil
}

// Assess implements Analyzer.
func (a *RegressionAnalyzer) Assess(ctx context.Context, f model.ImagePropertyFeatures) (*model.QualityAssessment, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	level := bandLevel(f.BlurScore, a.bands)

	qa := &model.QualityAssessment{
		QualityLevel: level,
		Confidence:   RegressionConfidence,
		Diagnostics: map[string]any{
			"analyzer":     AnalyzerRegression,
			"edge_density": f.EdgeDensity,
		},
	}
	normalizedLevels(qa, f)

	if level == model.QualityPristine {
		qa.RecommendedFilter = model.FilterNone
		qa.Parameters = model.NoFilter{}
		return qa, nil
	}

	params, err := a.pred.PredictAll(f)
	if err != nil {
		return nil, err
	}
	qa.RecommendedFilter = model.FilterRegressionPredicted
	qa.Parameters = params

	zap.L().Debug("quality: regression assessment",
		zap.String("level", level.String()),
		zap.Float64("contrast", params.Contrast),
		zap.Float64("brightness", params.Brightness),
		zap.Float64("sharpness", params.Sharpness),
	)
	return qa, nil
}
