package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"evicite/internal/port"
)

// MockRelevanceOracle is a mock implementation of port.RelevanceOracle.
type MockRelevanceOracle struct {
	mock.Mock
}

func (m *MockRelevanceOracle) FindPassage(ctx context.Context, input port.OracleInput) (*port.OracleOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OracleOutput), args.Error(1)
}
