package quality

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Predicted parameter names.
const (
	ParamContrast       = "contrast"
	ParamBrightness     = "brightness"
	ParamSharpness      = "sharpness"
	ParamUnsharpRadius  = "unsharp_radius"
	ParamUnsharpPercent = "unsharp_percent"
)

// Params lists every parameter a ParameterPredictor must carry a model for.
var Params = []string{ParamContrast, ParamBrightness, ParamSharpness, ParamUnsharpRadius, ParamUnsharpPercent}

// ParameterPredictor evaluates one polynomial model per enhancement
// parameter. It is read-only after construction.
type ParameterPredictor struct {
	models map[string]PolynomialModel
}

// NewParameterPredictor validates and wraps the model set. A missing or
// malformed parameter model fails with model.ErrInvalidModel.
func NewParameterPredictor(models map[string]PolynomialModel) (*ParameterPredictor, error) {
	owned := make(map[string]PolynomialModel, len(Params))
	for _, p := range Params {
		m, ok := models[p]
		if !ok {
			return nil, eris.Wrapf(model.ErrInvalidModel, "quality: no model for parameter %q", p)
		}
		if m.Name == "" {
			m.Name = p
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		m.Coefficients = append([]float64(nil), m.Coefficients...)
		owned[p] = m
	}
	return &ParameterPredictor{models: owned}, nil
}

// Model returns the model registered for param.
func (p *ParameterPredictor) Model(param string) (PolynomialModel, bool) {
	m, ok := p.models[param]
	return m, ok
}

// Predict evaluates the model for param and clamps the result to its valid range.
func (p *ParameterPredictor) Predict(param string, f model.ImagePropertyFeatures) (float64, error) {
	m, ok := p.models[param]
	if !ok {
		return 0, eris.Wrapf(model.ErrInvalidModel, "quality: no model for parameter %q", param)
	}

	if m.IsPlaceholder() {
		mid := m.ValidRange.Midpoint()
		zap.L().Warn("quality: untrained model, using range midpoint",
			zap.String("parameter", param),
			zap.Float64("midpoint", mid),
		)
		return mid, nil
	}

	basis := Expand(m.Normalize(f.Vector()), m.Degree)
	if len(basis) != len(m.Coefficients) {
		return 0, eris.Wrapf(model.ErrModelDimensionMismatch,
			"quality: model %q degree %d expands to %d terms, has %d coefficients",
			param, m.Degree, len(basis), len(m.Coefficients))
	}

	var y float64
	for i, b := range basis {
		y += b * m.Coefficients[i]
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		mid := m.ValidRange.Midpoint()
		zap.L().Warn("quality: non-finite prediction, using range midpoint",
			zap.String("parameter", param),
			zap.Float64("midpoint", mid),
		)
		return mid, nil
	}
	return m.ValidRange.Clamp(y), nil
}

// PredictAll evaluates every parameter into a RegressionPredicted recommendation.
func (p *ParameterPredictor) PredictAll(f model.ImagePropertyFeatures) (model.RegressionPredicted, error) {
	vals := make(map[string]float64, len(Params))
	for _, param := range Params {
		v, err := p.Predict(param, f)
		if err != nil {
			return model.RegressionPredicted{}, err
		}
		vals[param] = v
	}
	return model.RegressionPredicted{
		Contrast:       vals[ParamContrast],
		Brightness:     vals[ParamBrightness],
		Sharpness:      vals[ParamSharpness],
		UnsharpRadius:  vals[ParamUnsharpRadius],
		UnsharpPercent: vals[ParamUnsharpPercent],
	}, nil
}
