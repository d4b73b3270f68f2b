package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/port"
)

// MockSourceFetcher is a mock implementation of port.SourceFetcher.
type MockSourceFetcher struct {
	mock.Mock
}

func (m *MockSourceFetcher) Fetch(ctx context.Context, locator string) (*port.FetchOutput, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchOutput), args.Error(1)
}
