package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/anthonynsimon/bild/blur"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func uniformImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func stepImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func checkerImage(w, h, cell int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 230})
			} else {
				img.SetGray(x, y, color.Gray{Y: 20})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 2, reflect101(-2, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 0, reflect101(-3, 1))
	assert.Equal(t, 4, reflect101(4, 5))
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidImage)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrImageDecode)
	assert.NotErrorIs(t, err, model.ErrInvalidImage)
}

func TestDecode_PNG(t *testing.T) {
	img, err := Decode(encodePNG(t, checkerImage(16, 12, 4)))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
}

func TestDownscale(t *testing.T) {
	img := checkerImage(200, 100, 10)
	assert.Same(t, img, Downscale(img, 0))
	assert.Same(t, img, Downscale(img, 500))

	small := Downscale(img, 50)
	assert.Equal(t, 50, small.Bounds().Dx())
	assert.LessOrEqual(t, small.Bounds().Dy(), 50)
}

func TestExtract_UniformImage(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	f, err := fe.Extract(uniformImage(32, 32, 128))
	require.NoError(t, err)
	assert.InDelta(t, 0, f.BlurScore, 1e-9)
	assert.InDelta(t, 0, f.NoiseEstimate, 1e-9)
	assert.InDelta(t, 0, f.Contrast, 1e-9)
	assert.InDelta(t, 0, f.EdgeDensity, 1e-9)
}

func TestExtract_StepEdge(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	f, err := fe.Extract(stepImage(20, 20))
	require.NoError(t, err)
	assert.Greater(t, f.EdgeDensity, 0.0)
	assert.LessOrEqual(t, f.EdgeDensity, 1.0)
	assert.InDelta(t, 127.5, f.Contrast, 1e-9)
	assert.Greater(t, f.BlurScore, 0.0)
}

func TestExtract_BlurLowersBlurScore(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	sharp := checkerImage(64, 64, 4)
	blurred := blur.Gaussian(sharp, 2)

	fs, err := fe.Extract(sharp)
	require.NoError(t, err)
	fb, err := fe.Extract(blurred)
	require.NoError(t, err)

	assert.Greater(t, fs.BlurScore, fb.BlurScore)
	assert.Greater(t, fs.NoiseEstimate, fb.NoiseEstimate)
}

func TestExtract_ZeroSized(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	_, err := fe.Extract(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, model.ErrInvalidImage)
}

func TestExtractBytes(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{MaxDimension: 32})
	f, err := fe.ExtractBytes(encodePNG(t, checkerImage(64, 64, 8)))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.EdgeDensity, 0.0)
	assert.Greater(t, f.Contrast, 0.0)

	_, err = fe.ExtractBytes([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, model.ErrImageDecode)
}

func TestNewFeatureExtractor_Defaults(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	assert.Equal(t, DefaultCannyLow, fe.low)
	assert.Equal(t, DefaultCannyHigh, fe.high)

	fe = NewFeatureExtractor(FeatureConfig{CannyLow: 200, CannyHigh: 100})
	assert.Equal(t, 100.0, fe.low)
	assert.Equal(t, 200.0, fe.high)
}

func TestEnhancer_NoFilter(t *testing.T) {
	img := checkerImage(8, 8, 2)
	out, err := NewEnhancer().Apply(context.Background(), img, model.NoFilter{})
	require.NoError(t, err)
	assert.Same(t, img, out)
}

func TestEnhancer_AllVariants(t *testing.T) {
	img := checkerImage(24, 24, 3)
	params := []model.FilterParameters{
		model.SimpleEnhancement{ContrastFactor: 1.5, MedianKernelSize: 3},
		model.AdvancedEnhancement{
			DenoiseStrength: 10, ContrastClipLimit: 2, SmoothingDiameter: 5,
			ColorSigma: 75, SpatialSigma: 75, SharpenAmount: 1, SharpenRadius: 1,
		},
		model.RegressionPredicted{Contrast: 1.2, Brightness: 1.1, Sharpness: 1.5, UnsharpRadius: 1, UnsharpPercent: 150},
	}
	for _, p := range params {
		t.Run(p.FilterType().String(), func(t *testing.T) {
			out, err := NewEnhancer().Apply(context.Background(), img, p)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds().Size(), out.Bounds().Size())
		})
	}
}

func TestEnhancer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEnhancer().Apply(ctx, checkerImage(8, 8, 2), model.NoFilter{})
	assert.ErrorIs(t, err, model.ErrCancelled)
}

func TestContrast_StretchesAroundMidGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{100, 100, 150, 150})
	out := toGrayBuffer(contrast(img, 2))
	assert.Equal(t, []float64{72, 72, 172, 172}, out.pix)
}

func TestBrightness_Scales(t *testing.T) {
	out := toGrayBuffer(brightness(uniformImage(2, 2, 100), 1.5))
	assert.Equal(t, []float64{150, 150, 150, 150}, out.pix)
}

func TestMedian_RemovesSpeck(t *testing.T) {
	img := uniformImage(5, 5, 100)
	img.SetGray(2, 2, color.Gray{Y: 255})
	out := toGrayBuffer(median(img, 3))
	assert.Equal(t, 100.0, out.pix[2*5+2])
	assert.Same(t, img, median(img, 1))
}

func TestDenoise_Strength(t *testing.T) {
	img := uniformImage(5, 5, 100)
	img.SetGray(2, 2, color.Gray{Y: 250})
	assert.Same(t, img, denoise(img, 0))
	full := toGrayBuffer(denoise(img, 30))
	assert.InDelta(t, 100, full.pix[2*5+2], 1)
	half := toGrayBuffer(denoise(img, 15))
	assert.InDelta(t, 175, half.pix[2*5+2], 1)
}

func TestSharpen(t *testing.T) {
	fe := NewFeatureExtractor(FeatureConfig{})
	sharp := checkerImage(64, 64, 4)
	soft := blur.Gaussian(sharp, 2)
	assert.Same(t, soft, sharpen(soft, 1, 0))

	fSoft, err := fe.Extract(soft)
	require.NoError(t, err)
	fSharpened, err := fe.Extract(sharpen(soft, 2, 1.5))
	require.NoError(t, err)
	assert.Greater(t, fSharpened.BlurScore, fSoft.BlurScore)

	fSharp, err := fe.Extract(sharp)
	require.NoError(t, err)
	fSoftened, err := fe.Extract(sharpen(sharp, 2, -1))
	require.NoError(t, err)
	assert.Less(t, fSoftened.BlurScore, fSharp.BlurScore)
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(checkerImage(8, 8, 2))
	require.NoError(t, err)
	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}
