package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
)

// MockOutcomeRepo is a mock implementation of port.OutcomeRepository.
type MockOutcomeRepo struct {
	mock.Mock
}

func (m *MockOutcomeRepo) Create(ctx context.Context, outcome *domain.ProcessingOutcome) error {
	args := m.Called(ctx, outcome)
	return args.Error(0)
}

func (m *MockOutcomeRepo) GetByCitation(ctx context.Context, citationID uuid.UUID) (*domain.ProcessingOutcome, error) {
	args := m.Called(ctx, citationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingOutcome), args.Error(1)
}

func (m *MockOutcomeRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingOutcome), args.Error(1)
}
