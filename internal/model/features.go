package model

// FeatureCount is the number of scalar image-quality features.
const FeatureCount = 4

// ImagePropertyFeatures are the scalar quality measurements taken from one page image.
type ImagePropertyFeatures struct {
	// BlurScore is the variance of the Laplacian response. Higher is sharper.
	BlurScore float64 `json:"blur_score" yaml:"blur_score"`
	// Contrast is the standard deviation of grayscale intensities.
	Contrast float64 `json:"contrast" yaml:"contrast"`
	// NoiseEstimate is the mean absolute Laplacian response.
	NoiseEstimate float64 `json:"noise_estimate" yaml:"noise_estimate"`
	// EdgeDensity is the ratio of edge pixels to total pixels, in [0,1].
	EdgeDensity float64 `json:"edge_density" yaml:"edge_density"`
}

// Vector returns the features in canonical model order:
// blur, contrast, noise, edge density.
func (f ImagePropertyFeatures) Vector() [FeatureCount]float64 {
	return [FeatureCount]float64{f.BlurScore, f.Contrast, f.NoiseEstimate, f.EdgeDensity}
}
