package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
	"evicite/internal/service"
)

// MockRunService is a mock implementation of service.RunService.
type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) CreateRun(ctx context.Context, input *service.CreateRunInput) (*domain.VerificationRun, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRun), args.Error(1)
}

func (m *MockRunService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.VerificationRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationRun), args.Error(1)
}

func (m *MockRunService) ListRuns(ctx context.Context, offset, limit int) ([]domain.VerificationRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.VerificationRun), args.Int(1), args.Error(2)
}

func (m *MockRunService) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessingOutcome), args.Error(1)
}

func (m *MockRunService) GetReport(ctx context.Context, runID uuid.UUID) (*domain.RunReport, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *MockRunService) CancelRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockRunService) ArtifactURL(ctx context.Context, identity string) (string, error) {
	args := m.Called(ctx, identity)
	return args.String(0), args.Error(1)
}

func (m *MockRunService) ExecuteRun(ctx context.Context, run *domain.VerificationRun) {
	m.Called(ctx, run)
}
