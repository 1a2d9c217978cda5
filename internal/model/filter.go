package model

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
)

// FilterType names an enhancement filter.
type FilterType int

const (
	FilterNone FilterType = iota
	FilterSimpleEnhancement
	FilterAdvancedEnhancement
	FilterRegressionPredicted
)

var filterTypeNames = map[FilterType]string{
	FilterNone:                "none",
	FilterSimpleEnhancement:   "simple_enhancement",
	FilterAdvancedEnhancement: "advanced_enhancement",
	FilterRegressionPredicted: "regression_predicted",
}

func (t FilterType) String() string {
	if s, ok := filterTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the filter type by name.
func (t FilterType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a filter type name.
func (t *FilterType) UnmarshalText(b []byte) error {
	v, err := ParseFilterType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseFilterType parses a filter type name case-insensitively.
func ParseFilterType(s string) (FilterType, error) {
	for ft, name := range filterTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return ft, nil
		}
	}
	return FilterNone, eris.Errorf("model: unknown filter type %q", s)
}

// FilterParameters is the tagged union of enhancement parameter sets. Each
// variant carries only what its filter needs.
type FilterParameters interface {
	FilterType() FilterType
	// Clamp returns a copy with every field inside its valid range.
	Clamp() FilterParameters
}

// NoFilter leaves the image untouched.
type NoFilter struct{}

func (NoFilter) FilterType() FilterType  { return FilterNone }
func (NoFilter) Clamp() FilterParameters { return NoFilter{} }

// SimpleEnhancement is a global contrast stretch followed by a median filter.
type SimpleEnhancement struct {
	ContrastFactor   float64 `json:"contrast_factor" yaml:"contrast_factor" mapstructure:"contrast_factor"`
	MedianKernelSize int     `json:"median_kernel_size" yaml:"median_kernel_size" mapstructure:"median_kernel_size"`
}

func (SimpleEnhancement) FilterType() FilterType { return FilterSimpleEnhancement }

func (p SimpleEnhancement) Clamp() FilterParameters {
	p.ContrastFactor = ClampRange(p.ContrastFactor, 1.0, 3.0)
	p.MedianKernelSize = clampOddKernel(p.MedianKernelSize, 1, 7)
	return p
}

// AdvancedEnhancement denoises, equalizes with a clip limit, smooths edge-preserving
// and sharpens.
type AdvancedEnhancement struct {
	DenoiseStrength   float64 `json:"denoise_strength" yaml:"denoise_strength" mapstructure:"denoise_strength"`
	ContrastClipLimit float64 `json:"contrast_clip_limit" yaml:"contrast_clip_limit" mapstructure:"contrast_clip_limit"`
	SmoothingDiameter int     `json:"smoothing_diameter" yaml:"smoothing_diameter" mapstructure:"smoothing_diameter"`
	ColorSigma        float64 `json:"color_sigma" yaml:"color_sigma" mapstructure:"color_sigma"`
	SpatialSigma      float64 `json:"spatial_sigma" yaml:"spatial_sigma" mapstructure:"spatial_sigma"`
	SharpenAmount     float64 `json:"sharpen_amount" yaml:"sharpen_amount" mapstructure:"sharpen_amount"`
	SharpenRadius     float64 `json:"sharpen_radius" yaml:"sharpen_radius" mapstructure:"sharpen_radius"`
}

func (AdvancedEnhancement) FilterType() FilterType { return FilterAdvancedEnhancement }

func (p AdvancedEnhancement) Clamp() FilterParameters {
	p.DenoiseStrength = ClampRange(p.DenoiseStrength, 1, 30)
	p.ContrastClipLimit = ClampRange(p.ContrastClipLimit, 1, 4)
	p.SmoothingDiameter = clampOddKernel(p.SmoothingDiameter, 3, 15)
	p.ColorSigma = ClampRange(p.ColorSigma, 10, 150)
	p.SpatialSigma = ClampRange(p.SpatialSigma, 10, 150)
	p.SharpenAmount = ClampRange(p.SharpenAmount, 0, 3)
	p.SharpenRadius = ClampRange(p.SharpenRadius, 0.5, 5)
	return p
}

// RegressionPredicted holds the continuous parameters produced by the polynomial models.
type RegressionPredicted struct {
	Contrast       float64 `json:"contrast" yaml:"contrast"`
	Brightness     float64 `json:"brightness" yaml:"brightness"`
	Sharpness      float64 `json:"sharpness" yaml:"sharpness"`
	UnsharpRadius  float64 `json:"unsharp_radius" yaml:"unsharp_radius"`
	UnsharpPercent float64 `json:"unsharp_percent" yaml:"unsharp_percent"`
}

func (RegressionPredicted) FilterType() FilterType { return FilterRegressionPredicted }

func (p RegressionPredicted) Clamp() FilterParameters {
	p.Contrast = ClampRange(p.Contrast, 0.5, 3.0)
	p.Brightness = ClampRange(p.Brightness, 0.5, 1.5)
	p.Sharpness = ClampRange(p.Sharpness, 0.5, 3.0)
	p.UnsharpRadius = ClampRange(p.UnsharpRadius, 0.5, 5.0)
	p.UnsharpPercent = ClampRange(p.UnsharpPercent, 50, 300)
	return p
}

// clampOddKernel bounds k to [lo,hi] and rounds even sizes up to the next odd size.
func clampOddKernel(k, lo, hi int) int {
	k = int(math.Max(float64(lo), math.Min(float64(hi), float64(k))))
	if k%2 == 0 {
		if k+1 <= hi {
			k++
		} else {
			k--
		}
	}
	return k
}
