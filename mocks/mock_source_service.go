package mocks

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"evicite/internal/service"
)

// MockSourceService is a mock implementation of service.SourceService.
type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Prepare(ctx context.Context, locator string) (*service.PreparedSource, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PreparedSource), args.Error(1)
}

func (m *MockSourceService) OriginalKey(identity string) string {
	return fmt.Sprintf("sources/%s/original.pdf", identity)
}

func (m *MockSourceService) AnnotatedKey(identity string) string {
	return fmt.Sprintf("sources/%s/annotated.pdf", identity)
}
