package imaging

import (
	"image"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Default dual thresholds for the edge detector, on the Sobel L2 magnitude.
const (
	DefaultCannyLow  = 50.0
	DefaultCannyHigh = 150.0
)

// FeatureConfig tunes feature extraction.
type FeatureConfig struct {
	CannyLow     float64 `yaml:"canny_low" mapstructure:"canny_low"`
	CannyHigh    float64 `yaml:"canny_high" mapstructure:"canny_high"`
	MaxDimension int     `yaml:"max_dimension" mapstructure:"max_dimension"`
}

// FeatureExtractor computes ImagePropertyFeatures. It holds no mutable state
// and is safe for concurrent use.
type FeatureExtractor struct {
	low, high float64
	maxDim    int
}

// NewFeatureExtractor creates a FeatureExtractor, filling zero thresholds with defaults.
func NewFeatureExtractor(cfg FeatureConfig) *FeatureExtractor {
	fe := &FeatureExtractor{low: cfg.CannyLow, high: cfg.CannyHigh, maxDim: cfg.MaxDimension}
	if fe.low <= 0 {
		fe.low = DefaultCannyLow
	}
	if fe.high <= 0 {
		fe.high = DefaultCannyHigh
	}
	if fe.low > fe.high {
		fe.low, fe.high = fe.high, fe.low
	}
	return fe
}

// ExtractBytes decodes data and extracts its features.
func (fe *FeatureExtractor) ExtractBytes(data []byte) (model.ImagePropertyFeatures, error) {
	img, err := Decode(data)
	if err != nil {
		return model.ImagePropertyFeatures{}, err
	}
	return fe.Extract(img)
}

// Extract computes blur, contrast, noise and edge density for img.
func (fe *FeatureExtractor) Extract(img image.Image) (model.ImagePropertyFeatures, error) {
	if img == nil || img.Bounds().Empty() {
		return model.ImagePropertyFeatures{}, eris.Wrap(model.ErrInvalidImage, "imaging: zero-sized image")
	}
	gray := toGrayBuffer(Downscale(img, fe.maxDim))

	lap := laplacian(gray)
	n := float64(len(lap))

	var lapSum, lapAbsSum float64
	for _, v := range lap {
		lapSum += v
		lapAbsSum += math.Abs(v)
	}
	lapMean := lapSum / n
	var lapVar float64
	for _, v := range lap {
		d := v - lapMean
		lapVar += d * d
	}
	lapVar /= n

	var graySum float64
	for _, v := range gray.pix {
		graySum += v
	}
	grayMean := graySum / n
	var grayVar float64
	for _, v := range gray.pix {
		d := v - grayMean
		grayVar += d * d
	}
	grayVar /= n

	edges := cannyEdges(gray, fe.low, fe.high)
	var edgeCount int
	for _, e := range edges {
		if e {
			edgeCount++
		}
	}

	return model.ImagePropertyFeatures{
		BlurScore:     lapVar,
		Contrast:      math.Sqrt(grayVar),
		NoiseEstimate: lapAbsSum / n,
		EdgeDensity:   model.Clamp01(float64(edgeCount) / n),
	}, nil
}

// laplacian applies the 4-neighbour discrete Laplacian with reflected borders.
func laplacian(g *grayBuffer) []float64 {
	out := make([]float64, g.w*g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			out[y*g.w+x] = g.at(x-1, y) + g.at(x+1, y) + g.at(x, y-1) + g.at(x, y+1) - 4*g.at(x, y)
		}
	}
	return out
}
