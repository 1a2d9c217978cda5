package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/regdoc-cli/internal/model"
)

// Failure kinds.
const (
	KindTransient = "transient"
	KindPermanent = "permanent"
	KindCancelled = "cancelled"
)

// Failure records a document or page that could not be processed, so a batch
// run can report it and the caller can decide whether to resubmit.
type Failure struct {
	DocumentID string    `json:"document_id"`
	Source     string    `json:"source"`
	// Page is the 1-based failing page; 0 means the whole document.
	Page       int       `json:"page,omitempty"`
	Stage      string    `json:"stage"`
	Error      string    `json:"error"`
	Kind       string    `json:"kind"`
	FailedAt   time.Time `json:"failed_at"`
}

// Retryable reports whether resubmitting the same input may succeed.
func (f Failure) Retryable() bool {
	return f.Kind == KindTransient
}

// ClassifyError buckets err into one of the failure kinds.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, model.ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case IsTransient(err):
		return KindTransient
	}
	return KindPermanent
}

// NewFailure builds a Failure stamped with the current time.
func NewFailure(docID, source string, page int, stage string, err error) Failure {
	return Failure{
		DocumentID: docID,
		Source:     source,
		Page:       page,
		Stage:      stage,
		Error:      err.Error(),
		Kind:       ClassifyError(err),
		FailedAt:   time.Now().UTC(),
	}
}
