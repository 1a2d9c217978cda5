package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/ocr"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
)

const oficioText = `OFICIO DE ASEGURAMIENTO
Expediente: EXP-2024-001
No. de Oficio: OF/220/2024
Autoridad: Servicio de Administración Tributaria

Fundamento: Artículo 40 del Código Fiscal
Acción solicitada: Aseguramiento de cuentas
Monto: $1,500,000.00 MXN
Fecha: 5 de marzo de 2024`

type staticEngine struct {
	text string
	err  error
}

func (e *staticEngine) ExtractText(_ context.Context, _ []byte) (ocr.Result, error) {
	if e.err != nil {
		return ocr.Result{}, e.err
	}
	return ocr.Result{Text: e.text, Confidence: 0.9, Engine: "static"}, nil
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Imaging.CannyLow = 50
	c.Imaging.CannyHigh = 150
	c.Imaging.MaxDimension = 400
	c.Quality.Analyzer = "threshold"
	c.Quality.FilterPolicy = "adaptive"
	c.Extraction.Mode = "best_strategy"
	c.Extraction.Concurrency = 5
	c.Extraction.PartialThreshold = 0.8
	c.Extraction.PhraseThreshold = 0.85
	c.Extraction.MinTextQuality = 0.5
	c.OCR.Provider = "tesseract"
	c.Store.Driver = "file"
	c.Pipeline.PageConcurrency = 1
	c.Pipeline.DocumentConcurrency = 1
	c.Server.MaxUploadMB = 1
	return c
}

func testComponents(t *testing.T, engine ocr.Engine) (*pipeline.Components, *pipeline.Pipeline) {
	t.Helper()
	c := testConfig()
	comps, err := pipeline.NewComponents(c, nil)
	require.NoError(t, err)
	p, err := comps.NewPipeline(c, engine)
	require.NoError(t, err)
	return comps, p
}

// scanImage draws dark bars on a light page, roughly like lines of text.
func scanImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			v := uint8(235)
			if y%20 >= 8 && y%20 < 13 && x > 10 && x < 150 && (x/7)%3 != 0 {
				v = 30
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
