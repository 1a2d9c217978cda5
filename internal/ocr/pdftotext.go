package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// PdfToText reads the text layer of native PDFs with the pdftotext CLI.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText reader. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractPDF runs pdftotext -layout over pdf piped on stdin. A document
// without a text layer yields empty text and zero confidence.
func (p *PdfToText) ExtractPDF(ctx context.Context, pdf []byte) (Result, error) {
	if err := model.CheckCancelled(ctx); err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-enc", "UTF-8", "-", "-")
	cmd.Stdin = bytes.NewReader(pdf)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, model.ErrCancelled
		}
		return Result{}, eris.Wrapf(model.ErrExtractionFailed, "ocr: pdftotext: %v: %s",
			err, strings.TrimSpace(stderr.String()))
	}

	text := strings.ReplaceAll(stdout.String(), "\f", "\n")
	var conf float32
	if strings.TrimSpace(text) != "" {
		conf = 1
	}
	return Result{Text: text, Confidence: conf, Engine: EnginePdfToText}, nil
}

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
