package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/port"
)

// MockAnnotator is a mock implementation of port.Annotator.
type MockAnnotator struct {
	mock.Mock
}

func (m *MockAnnotator) Annotate(ctx context.Context, src []byte, highlights []port.Highlight) ([]byte, error) {
	args := m.Called(ctx, src, highlights)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
