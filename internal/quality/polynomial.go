// Package quality classifies page images and turns their measured features
// into enhancement filter recommendations.
package quality

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// ValidRange bounds a predicted parameter.
type ValidRange struct {
	Min float64 `json:"min" yaml:"min" mapstructure:"min"`
	Max float64 `json:"max" yaml:"max" mapstructure:"max"`
}

// Midpoint returns the centre of the range.
func (r ValidRange) Midpoint() float64 { return (r.Min + r.Max) / 2 }

// Clamp bounds v to the range. NaN maps to the minimum.
func (r ValidRange) Clamp(v float64) float64 { return model.ClampRange(v, r.Min, r.Max) }

// Normalization holds the per-feature z-score statistics a model was trained with.
type Normalization struct {
	Mean  []float64 `json:"mean" yaml:"mean" mapstructure:"mean"`
	Scale []float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
}

// PolynomialModel is a trained polynomial regression for one enhancement parameter.
// Coefficient order must match Expand.
type PolynomialModel struct {
	Name          string        `json:"name" yaml:"name" mapstructure:"name"`
	Degree        int           `json:"degree" yaml:"degree" mapstructure:"degree"`
	Coefficients  []float64     `json:"coefficients" yaml:"coefficients" mapstructure:"coefficients"`
	ValidRange    ValidRange    `json:"valid_range" yaml:"valid_range" mapstructure:"valid_range"`
	Normalization Normalization `json:"normalization" yaml:"normalization" mapstructure:"normalization"`
}

// Validate checks the structural invariants of the model. Coefficient length is
// checked at prediction time so placeholder models can still be loaded.
func (m PolynomialModel) Validate() error {
	if m.Degree < 1 || m.Degree > 3 {
		return eris.Wrapf(model.ErrInvalidModel, "quality: model %q degree %d outside 1..3", m.Name, m.Degree)
	}
	if len(m.Normalization.Mean) != model.FeatureCount || len(m.Normalization.Scale) != model.FeatureCount {
		return eris.Wrapf(model.ErrInvalidModel, "quality: model %q normalization needs %d means and scales", m.Name, model.FeatureCount)
	}
	for i, s := range m.Normalization.Scale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return eris.Wrapf(model.ErrInvalidModel, "quality: model %q scale[%d] is %v", m.Name, i, s)
		}
	}
	if m.ValidRange.Min > m.ValidRange.Max {
		return eris.Wrapf(model.ErrInvalidModel, "quality: model %q range [%v,%v] inverted", m.Name, m.ValidRange.Min, m.ValidRange.Max)
	}
	return nil
}

// IsPlaceholder reports whether the model has no trained coefficients.
func (m PolynomialModel) IsPlaceholder() bool {
	for _, c := range m.Coefficients {
		if c != 0 {
			return false
		}
	}
	return true
}

// Normalize z-scores a raw feature vector.
func (m PolynomialModel) Normalize(x [model.FeatureCount]float64) [model.FeatureCount]float64 {
	var z [model.FeatureCount]float64
	for i := range x {
		z[i] = (x[i] - m.Normalization.Mean[i]) / m.Normalization.Scale[i]
	}
	return z
}

// BasisLength is the expanded vector length for a degree: 5, 15 or 19.
func BasisLength(degree int) int {
	switch {
	case degree <= 1:
		return 1 + model.FeatureCount
	case degree == 2:
		return 1 + 2*model.FeatureCount + 6
	default:
		return 1 + 3*model.FeatureCount + 6
	}
}

// Expand builds the polynomial basis: intercept, linear terms, then for
// degree >= 2 the squares and the six pairwise products, then for degree 3
// the cubes.
func Expand(z [model.FeatureCount]float64, degree int) []float64 {
	basis := make([]float64, 0, BasisLength(degree))
	basis = append(basis, 1)
	basis = append(basis, z[:]...)
	if degree >= 2 {
		for _, v := range z {
			basis = append(basis, v*v)
		}
		for i := 0; i < model.FeatureCount; i++ {
			for j := i + 1; j < model.FeatureCount; j++ {
				basis = append(basis, z[i]*z[j])
			}
		}
	}
	if degree >= 3 {
		for _, v := range z {
			basis = append(basis, v*v*v)
		}
	}
	return basis
}
