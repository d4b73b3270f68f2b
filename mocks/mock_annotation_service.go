package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
	"evicite/internal/service"
)

// MockAnnotationService is a mock implementation of service.AnnotationService.
type MockAnnotationService struct {
	mock.Mock
}

func (m *MockAnnotationService) Apply(ctx context.Context, src *service.PreparedSource, ann *domain.AnnotationRecord, note string) (string, error) {
	args := m.Called(ctx, src, ann, note)
	return args.String(0), args.Error(1)
}
