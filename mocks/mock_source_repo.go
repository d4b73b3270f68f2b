package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/domain"
)

// MockSourceRepo is a mock implementation of port.SourceRepository.
type MockSourceRepo struct {
	mock.Mock
}

func (m *MockSourceRepo) Upsert(ctx context.Context, src *domain.SourceRecord) error {
	args := m.Called(ctx, src)
	return args.Error(0)
}

func (m *MockSourceRepo) GetByIdentity(ctx context.Context, identity string) (*domain.SourceRecord, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceRecord), args.Error(1)
}
