package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/regdoc-cli/internal/ocr"
)

// --- OCR Engine Mock ---

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ExtractText(ctx context.Context, image []byte) (ocr.Result, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(ocr.Result), args.Error(1)
}

// --- Text Layer Mock ---

type mockTextLayer struct {
	mock.Mock
}

func (m *mockTextLayer) ExtractPDF(ctx context.Context, pdf []byte) (ocr.Result, error) {
	args := m.Called(ctx, pdf)
	return args.Get(0).(ocr.Result), args.Error(1)
}

// queueEngine returns its texts in call order.
type queueEngine struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (q *queueEngine) ExtractText(_ context.Context, _ []byte) (ocr.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	text := q.texts[q.calls%len(q.texts)]
	q.calls++
	return ocr.Result{Text: text, Confidence: 0.9, Engine: "queue"}, nil
}
