package model

import (
	"context"

	"github.com/rotisserie/eris"
)

// Error taxonomy shared by the imaging, quality, extraction and comparison packages.
// Callers match with errors.Is; wrapped variants carry an eris stack.
var (
	// ErrInvalidImage is returned for empty or zero-sized pixel buffers.
	ErrInvalidImage = eris.New("invalid image")

	// ErrImageDecode is returned when bytes cannot be decoded into an image.
	ErrImageDecode = eris.New("image decode error")

	// ErrModelDimensionMismatch signals that a polynomial model's coefficient
	// vector does not match its basis expansion. Always a configuration bug.
	ErrModelDimensionMismatch = eris.New("model dimension mismatch")

	// ErrInvalidModel is returned for missing or malformed model configuration.
	ErrInvalidModel = eris.New("invalid model configuration")

	// ErrCancelled is returned unwrapped when a call observes a cancelled context.
	ErrCancelled = eris.New("cancelled")

	// ErrComparisonInputInvalid is returned when a comparison is missing required inputs.
	ErrComparisonInputInvalid = eris.New("comparison input invalid")

	// ErrExtractionFailed is returned by OCR collaborators that could not produce text.
	ErrExtractionFailed = eris.New("extraction failed")
)

// CheckCancelled returns ErrCancelled when ctx is done.
func CheckCancelled(ctx context.Context) error {
	if ctx != nil && ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}
