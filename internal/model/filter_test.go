package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilterType(t *testing.T) {
	t.Parallel()

	for ft, name := range filterTypeNames {
		got, err := ParseFilterType(name)
		require.NoError(t, err)
		assert.Equal(t, ft, got)
	}

	_, err := ParseFilterType("sepia")
	assert.Error(t, err)
	assert.Equal(t, "unknown", FilterType(9).String())
}

func TestFilterParameters_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		params FilterParameters
		want   FilterType
	}{
		{NoFilter{}, FilterNone},
		{SimpleEnhancement{}, FilterSimpleEnhancement},
		{AdvancedEnhancement{}, FilterAdvancedEnhancement},
		{RegressionPredicted{}, FilterRegressionPredicted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.params.FilterType())
		assert.Equal(t, tt.want, tt.params.Clamp().FilterType())
	}
}

func TestSimpleEnhancement_Clamp(t *testing.T) {
	t.Parallel()

	got := SimpleEnhancement{ContrastFactor: 9, MedianKernelSize: 4}.Clamp().(SimpleEnhancement)
	assert.Equal(t, 3.0, got.ContrastFactor)
	assert.Equal(t, 5, got.MedianKernelSize)

	got = SimpleEnhancement{ContrastFactor: 0.2, MedianKernelSize: 20}.Clamp().(SimpleEnhancement)
	assert.Equal(t, 1.0, got.ContrastFactor)
	assert.Equal(t, 7, got.MedianKernelSize)
}

func TestAdvancedEnhancement_Clamp(t *testing.T) {
	t.Parallel()

	got := AdvancedEnhancement{
		DenoiseStrength:   0,
		ContrastClipLimit: 10,
		SmoothingDiameter: 16,
		ColorSigma:        500,
		SpatialSigma:      1,
		SharpenAmount:     -1,
		SharpenRadius:     9,
	}.Clamp().(AdvancedEnhancement)

	assert.Equal(t, 1.0, got.DenoiseStrength)
	assert.Equal(t, 4.0, got.ContrastClipLimit)
	assert.Equal(t, 15, got.SmoothingDiameter)
	assert.Equal(t, 150.0, got.ColorSigma)
	assert.Equal(t, 10.0, got.SpatialSigma)
	assert.Equal(t, 0.0, got.SharpenAmount)
	assert.Equal(t, 5.0, got.SharpenRadius)
}

func TestRegressionPredicted_Clamp(t *testing.T) {
	t.Parallel()

	in := RegressionPredicted{Contrast: 1.2, Brightness: 3, Sharpness: 0, UnsharpRadius: 2, UnsharpPercent: 1000}
	got := in.Clamp().(RegressionPredicted)
	assert.Equal(t, 1.2, got.Contrast)
	assert.Equal(t, 1.5, got.Brightness)
	assert.Equal(t, 0.5, got.Sharpness)
	assert.Equal(t, 2.0, got.UnsharpRadius)
	assert.Equal(t, 300.0, got.UnsharpPercent)
	assert.Equal(t, 3.0, in.Brightness, "clamp must not mutate the receiver")
}

func TestClampOddKernel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3, clampOddKernel(2, 1, 7))
	assert.Equal(t, 7, clampOddKernel(8, 1, 7))
	assert.Equal(t, 1, clampOddKernel(-4, 1, 7))
	assert.Equal(t, 5, clampOddKernel(6, 3, 6))
}
