package quality

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Thresholds are the empirical cut points used by the analyzers.
type Thresholds struct {
	PristineBlur  float64 `json:"pristine_blur" yaml:"pristine_blur" mapstructure:"pristine_blur"`
	PristineNoise float64 `json:"pristine_noise" yaml:"pristine_noise" mapstructure:"pristine_noise"`
	Q4Blur        float64 `json:"q4_blur" yaml:"q4_blur" mapstructure:"q4_blur"`
	Q4Noise       float64 `json:"q4_noise" yaml:"q4_noise" mapstructure:"q4_noise"`
	Q3Blur        float64 `json:"q3_blur" yaml:"q3_blur" mapstructure:"q3_blur"`
	Q3Noise       float64 `json:"q3_noise" yaml:"q3_noise" mapstructure:"q3_noise"`
	Q2Blur        float64 `json:"q2_blur" yaml:"q2_blur" mapstructure:"q2_blur"`
	SevereBlur    float64 `json:"severe_blur" yaml:"severe_blur" mapstructure:"severe_blur"`
	SevereNoise   float64 `json:"severe_noise" yaml:"severe_noise" mapstructure:"severe_noise"`
	LowContrast   float64 `json:"low_contrast" yaml:"low_contrast" mapstructure:"low_contrast"`
	// BlurBands are the ascending BlurScore minima for Q1..Pristine.
	BlurBands []float64 `json:"blur_bands" yaml:"blur_bands" mapstructure:"blur_bands"`
}

// DefaultThresholds returns the built-in cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PristineBlur:  800,
		PristineNoise: 8,
		Q4Blur:        400,
		Q4Noise:       15,
		Q3Blur:        150,
		Q3Noise:       25,
		Q2Blur:        50,
		SevereBlur:    50,
		SevereNoise:   30,
		LowContrast:   40,
		BlurBands:     []float64{0, 50, 150, 400, 800},
	}
}

// Validate checks band count and ordering.
func (t Thresholds) Validate() error {
	if len(t.BlurBands) != 5 {
		return eris.Wrapf(model.ErrInvalidModel, "quality: need 5 blur bands, got %d", len(t.BlurBands))
	}
	for i := 1; i < len(t.BlurBands); i++ {
		if t.BlurBands[i] < t.BlurBands[i-1] {
			return eris.Wrap(model.ErrInvalidModel, "quality: blur bands must ascend")
		}
	}
	if !(t.PristineBlur >= t.Q4Blur && t.Q4Blur >= t.Q3Blur && t.Q3Blur >= t.Q2Blur) {
		return eris.Wrap(model.ErrInvalidModel, "quality: blur cut points must descend from pristine to q2")
	}
	return nil
}

// Presets are the fixed parameter sets the rule-based paths materialize.
type Presets struct {
	Default  model.FilterType          `json:"default" yaml:"default"`
	Simple   model.SimpleEnhancement   `json:"simple" yaml:"simple"`
	Advanced model.AdvancedEnhancement `json:"advanced" yaml:"advanced"`
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() Presets {
	return Presets{
		Default: model.FilterSimpleEnhancement,
		Simple:  model.SimpleEnhancement{ContrastFactor: 1.5, MedianKernelSize: 3},
		Advanced: model.AdvancedEnhancement{
			DenoiseStrength:   10,
			ContrastClipLimit: 2.0,
			SmoothingDiameter: 9,
			ColorSigma:        75,
			SpatialSigma:      75,
			SharpenAmount:     1.0,
			SharpenRadius:     1.0,
		},
	}
}

// Materialize returns the preset for a rule-based filter type.
// RegressionPredicted has no preset and needs a predictor.
func (p Presets) Materialize(ft model.FilterType) (model.FilterParameters, error) {
	switch ft {
	case model.FilterNone:
		return model.NoFilter{}, nil
	case model.FilterSimpleEnhancement:
		return p.Simple.Clamp(), nil
	case model.FilterAdvancedEnhancement:
		return p.Advanced.Clamp(), nil
	default:
		return nil, eris.Wrapf(model.ErrInvalidModel, "quality: no preset for filter %s", ft)
	}
}

// ModelSet is the quality configuration loaded once at startup: one
// polynomial model per predicted parameter plus the analyzer cut points.
type ModelSet struct {
	Version    string                     `json:"version" yaml:"version"`
	Models     map[string]PolynomialModel `json:"models" yaml:"models"`
	Thresholds Thresholds                 `json:"thresholds" yaml:"thresholds"`
	Presets    Presets                    `json:"presets" yaml:"presets"`
}

// DefaultModelSet returns untrained placeholder models with the standard
// ranges and normalization. Placeholders predict range midpoints.
func DefaultModelSet() *ModelSet {
	norm := Normalization{
		Mean:  []float64{300, 50, 12, 0.05},
		Scale: []float64{300, 30, 10, 0.05},
	}
	ranges := map[string]ValidRange{
		ParamContrast:       {Min: 0.5, Max: 3.0},
		ParamBrightness:     {Min: 0.5, Max: 1.5},
		ParamSharpness:      {Min: 0.5, Max: 3.0},
		ParamUnsharpRadius:  {Min: 0.5, Max: 5.0},
		ParamUnsharpPercent: {Min: 50, Max: 300},
	}
	models := make(map[string]PolynomialModel, len(ranges))
	for _, p := range Params {
		models[p] = PolynomialModel{
			Name:          p,
			Degree:        2,
			ValidRange:    ranges[p],
			Normalization: Normalization{Mean: append([]float64(nil), norm.Mean...), Scale: append([]float64(nil), norm.Scale...)},
		}
	}
	return &ModelSet{
		Version:    "placeholder",
		Models:     models,
		Thresholds: DefaultThresholds(),
		Presets:    DefaultPresets(),
	}
}

// Validate checks every model, the thresholds and the default preset.
func (s *ModelSet) Validate() error {
	if s == nil {
		return eris.Wrap(model.ErrInvalidModel, "quality: nil model set")
	}
	for _, p := range Params {
		m, ok := s.Models[p]
		if !ok {
			return eris.Wrapf(model.ErrInvalidModel, "quality: model set missing %q", p)
		}
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if err := s.Thresholds.Validate(); err != nil {
		return err
	}
	if _, err := s.Presets.Materialize(s.Presets.Default); err != nil {
		return err
	}
	return nil
}
