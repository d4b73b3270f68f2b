package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
)

// MockCitationRepo is a mock implementation of port.CitationRepository.
type MockCitationRepo struct {
	mock.Mock
}

func (m *MockCitationRepo) CreateBatch(ctx context.Context, citations []domain.CitationRecord) error {
	args := m.Called(ctx, citations)
	return args.Error(0)
}

func (m *MockCitationRepo) GetByID(ctx context.Context, citationID uuid.UUID) (*domain.CitationRecord, error) {
	args := m.Called(ctx, citationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CitationRecord), args.Error(1)
}

func (m *MockCitationRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.CitationRecord, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CitationRecord), args.Error(1)
}

func (m *MockCitationRepo) UpdateState(ctx context.Context, citationID uuid.UUID, state domain.CitationState) error {
	args := m.Called(ctx, citationID, state)
	return args.Error(0)
}
