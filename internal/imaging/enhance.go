package imaging

import (
	"context"
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Enhancer applies a FilterParameters recommendation to a page image.
type Enhancer struct{}

// NewEnhancer creates an Enhancer.
func NewEnhancer() *Enhancer { return &Enhancer{} }

// Apply returns an enhanced grayscale copy of img. NoFilter (or nil
// params) returns img untouched. Parameters are clamped before use.
func (e *Enhancer) Apply(ctx context.Context, img image.Image, params model.FilterParameters) (image.Image, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, eris.Wrap(model.ErrInvalidImage, "imaging: enhance zero-sized image")
	}
	if params == nil {
		return img, nil
	}

	var out image.Image = toGrayBuffer(img).toImage()
	switch p := params.Clamp().(type) {
	case model.NoFilter:
		return img, nil
	case model.SimpleEnhancement:
		out = contrast(out, p.ContrastFactor)
		out = median(out, p.MedianKernelSize)
	case model.AdvancedEnhancement:
		g := equalizeClipped(denoise(out, p.DenoiseStrength), p.ContrastClipLimit)
		g = bilateral(g, p.SmoothingDiameter, p.ColorSigma, p.SpatialSigma)
		out = sharpen(g.toImage(), p.SharpenRadius, p.SharpenAmount)
	case model.RegressionPredicted:
		out = brightness(out, p.Brightness)
		out = contrast(out, p.Contrast)
		out = sharpen(out, 1.0, p.Sharpness-1)
		out = sharpen(out, p.UnsharpRadius, p.UnsharpPercent/100)
	default:
		return nil, eris.Errorf("imaging: unsupported filter %s", params.FilterType())
	}

	g := toGrayBuffer(out)
	zap.L().Debug("imaging: enhancement applied",
		zap.String("filter", params.FilterType().String()),
		zap.Int("width", g.w),
		zap.Int("height", g.h),
	)
	return g.toImage(), nil
}

// contrast stretches intensities around mid-gray by factor; 1 is a no-op.
func contrast(img image.Image, factor float64) image.Image {
	return adjust.Contrast(img, factor-1)
}

// brightness multiplies every intensity by factor.
func brightness(img image.Image, factor float64) image.Image {
	return adjust.Brightness(img, factor-1)
}

// median applies a k×k median filter. k <= 1 is a no-op.
func median(img image.Image, k int) image.Image {
	if k <= 1 {
		return img
	}
	return effect.Median(img, float64(k-1)/2)
}

// denoise blends each pixel toward its 3×3 median; strength 30 is a full replacement.
func denoise(img image.Image, strength float64) image.Image {
	w := model.ClampRange(strength/30, 0, 1)
	if w == 0 {
		return img
	}
	return blend.Opacity(img, median(img, 3), w)
}

// sharpen applies an unsharp mask whose Gaussian blur spans radius pixels.
// A negative amount softens toward the blurred image instead.
func sharpen(img image.Image, radius, amount float64) image.Image {
	if amount == 0 || radius <= 0 {
		return img
	}
	if amount < 0 {
		return blend.Opacity(img, blur.Gaussian(img, radius), -amount)
	}
	// UnsharpMask blurs at five times its radius argument.
	return effect.UnsharpMask(img, radius/5, amount)
}

// equalizeClipped performs global histogram equalization of a grayscale
// image with the histogram clipped at clipLimit times the uniform bin height
// and the excess redistributed.
func equalizeClipped(img image.Image, clipLimit float64) *grayBuffer {
	g := toGrayBuffer(img)
	bins := histogram.NewRGBAHistogram(img).R.Bins
	n := float64(len(g.pix))
	limit := clipLimit * n / 256
	var hist [256]float64
	var excess float64
	for i, c := range bins {
		hist[i] = float64(c)
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	share := excess / 256
	var lut [256]float64
	var cum float64
	for i := range hist {
		cum += hist[i] + share
		lut[i] = cum / n * 255
	}
	out := newGrayBuffer(g.w, g.h)
	for i, v := range g.pix {
		out.pix[i] = lut[clampByte(v)]
	}
	return out
}

// bilateral is an edge-preserving smoothing filter over a d×d neighbourhood.
func bilateral(g *grayBuffer, d int, colorSigma, spatialSigma float64) *grayBuffer {
	r := d / 2
	cs := 2 * colorSigma * colorSigma
	ss := 2 * spatialSigma * spatialSigma
	spatial := make([]float64, 0, d*d)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			spatial = append(spatial, math.Exp(-float64(dx*dx+dy*dy)/ss))
		}
	}
	out := newGrayBuffer(g.w, g.h)
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			c := g.at(x, y)
			var sum, wsum float64
			k := 0
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					v := g.at(x+dx, y+dy)
					diff := v - c
					wt := spatial[k] * math.Exp(-diff*diff/cs)
					sum += v * wt
					wsum += wt
					k++
				}
			}
			out.set(x, y, sum/wsum)
		}
	}
	return out
}
