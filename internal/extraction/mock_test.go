package extraction

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/regdoc-cli/internal/model"
)

type mockStrategy struct {
	mock.Mock
	name string
}

func newMockStrategy(name string) *mockStrategy {
	return &mockStrategy{name: name}
}

func (m *mockStrategy) Name() string { return m.name }

func (m *mockStrategy) CanExtract(ctx context.Context, text string) (bool, error) {
	args := m.Called(ctx, text)
	return args.Bool(0), args.Error(1)
}

func (m *mockStrategy) Confidence(ctx context.Context, text string) (int, error) {
	args := m.Called(ctx, text)
	return args.Int(0), args.Error(1)
}

func (m *mockStrategy) Extract(ctx context.Context, text string) (*model.ExtractedFields, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractedFields), args.Error(1)
}
