package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Tesseract runs the tesseract CLI in TSV mode, feeding the image on stdin.
type Tesseract struct {
	binPath  string
	language string
}

// NewTesseract creates a Tesseract engine. Empty values default to
// "tesseract" and "spa+eng".
func NewTesseract(binPath, language string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if language == "" {
		language = "spa+eng"
	}
	return &Tesseract{binPath: binPath, language: language}
}

// ExtractText recognizes the image and reports the mean word confidence.
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (Result, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout", "-l", t.language, "tsv")
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, model.ErrCancelled
		}
		return Result{}, eris.Wrapf(model.ErrExtractionFailed, "ocr: tesseract: %v: %s",
			err, strings.TrimSpace(stderr.String()))
	}

	text, conf := parseTSV(stdout.String())
	zap.L().Debug("ocr: tesseract done",
		zap.Int("chars", len(text)),
		zap.Float32("confidence", conf),
	)
	return Result{Text: text, Confidence: conf, Engine: EngineTesseract}, nil
}

// TSV columns: level page_num block_num par_num line_num word_num left top
// width height conf text.
const (
	tsvColumns = 12
	colBlock   = 2
	colPar     = 3
	colLine    = 4
	colConf    = 10
	colText    = 11
)

// parseTSV rebuilds line-broken text from word rows and returns the mean
// word confidence scaled to [0, 1].
func parseTSV(out string) (string, float32) {
	var sb strings.Builder
	var sum float64
	var words int
	lastLine := ""

	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvColumns {
			continue
		}
		word := strings.TrimSpace(cols[colText])
		conf, err := strconv.ParseFloat(cols[colConf], 64)
		if err != nil || conf < 0 || word == "" {
			continue
		}

		key := cols[colBlock] + "." + cols[colPar] + "." + cols[colLine]
		switch {
		case lastLine == "":
		case key != lastLine:
			sb.WriteByte('\n')
		default:
			sb.WriteByte(' ')
		}
		lastLine = key
		sb.WriteString(word)

		sum += conf
		words++
	}

	if words == 0 {
		return "", 0
	}
	return sb.String(), float32(model.Clamp01(sum / float64(words) / 100))
}
