package imaging

import (
	"bytes"
	"image"

	"github.com/rotisserie/eris"
	"github.com/sunshineplan/imgconv"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Decode turns raw page bytes into an image. Empty input fails with
// model.ErrInvalidImage, undecodable input with model.ErrImageDecode.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, eris.Wrap(model.ErrInvalidImage, "imaging: empty buffer")
	}
	img, err := decodeSafely(data)
	if err != nil {
		return nil, eris.Wrapf(model.ErrImageDecode, "imaging: decode: %v", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, eris.Wrap(model.ErrInvalidImage, "imaging: zero-sized image")
	}
	return img, nil
}

// decodeSafely guards against decoder panics on truncated input.
func decodeSafely(data []byte) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = eris.Errorf("decoder panic: %v", r)
		}
	}()
	return imgconv.Decode(bytes.NewReader(data))
}

// Downscale shrinks img so its longest side is at most maxDim. A maxDim of
// zero or an image already within bounds returns img unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	if w >= h {
		return imgconv.Resize(img, &imgconv.ResizeOption{Width: maxDim})
	}
	return imgconv.Resize(img, &imgconv.ResizeOption{Height: maxDim})
}

// EncodePNG renders img as PNG bytes for hand-off to a recognition engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgconv.Write(&buf, img, &imgconv.FormatOption{Format: imgconv.PNG}); err != nil {
		return nil, eris.Wrap(err, "imaging: encode png")
	}
	return buf.Bytes(), nil
}
