package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
	"evicite/internal/service"
)

// MockResolutionService is a mock implementation of service.ResolutionService.
type MockResolutionService struct {
	mock.Mock
}

func (m *MockResolutionService) ResolveExact(ctx context.Context, src *service.PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error) {
	args := m.Called(ctx, src, citation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedSpan), args.Error(1)
}

func (m *MockResolutionService) ResolveViaOracle(ctx context.Context, src *service.PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error) {
	args := m.Called(ctx, src, citation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedSpan), args.Error(1)
}
