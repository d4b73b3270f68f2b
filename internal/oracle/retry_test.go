package oracle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evicite/internal/oracle"
	"evicite/internal/port"
	"evicite/mocks"
)

func TestRetryOracle_SucceedsFirstAttempt(t *testing.T) {
	inner := new(mocks.MockRelevanceOracle)
	want := &port.OracleOutput{Found: true, Snippet: "x"}
	inner.On("FindPassage", mock.Anything, findInput).Return(want, nil)

	ro := oracle.NewRetryOracle(inner, 3)
	out, err := ro.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	inner.AssertNumberOfCalls(t, "FindPassage", 1)
}

func TestRetryOracle_RecoversAfterTransientFailure(t *testing.T) {
	inner := new(mocks.MockRelevanceOracle)
	want := &port.OracleOutput{Found: true, Snippet: "x"}
	inner.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("boom")).Once()
	inner.On("FindPassage", mock.Anything, findInput).Return(want, nil).Once()

	ro := oracle.NewRetryOracle(inner, 3)
	out, err := ro.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	inner.AssertNumberOfCalls(t, "FindPassage", 2)
}

func TestRetryOracle_Exhausted(t *testing.T) {
	inner := new(mocks.MockRelevanceOracle)
	inner.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("boom"))

	ro := oracle.NewRetryOracle(inner, 2)
	_, err := ro.FindPassage(context.Background(), findInput)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle exhausted after 2 attempts")
	inner.AssertNumberOfCalls(t, "FindPassage", 2)
}

func TestRetryOracle_NoProvidersIsNotRetried(t *testing.T) {
	inner := new(mocks.MockRelevanceOracle)
	inner.On("FindPassage", mock.Anything, findInput).Return(nil, oracle.ErrNoProviders)

	ro := oracle.NewRetryOracle(inner, 5)
	_, err := ro.FindPassage(context.Background(), findInput)
	assert.ErrorIs(t, err, oracle.ErrNoProviders)
	inner.AssertNumberOfCalls(t, "FindPassage", 1)
}

func TestRetryOracle_ContextCanceledDuringBackoff(t *testing.T) {
	inner := new(mocks.MockRelevanceOracle)
	inner.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("boom"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ro := oracle.NewRetryOracle(inner, 5)
	_, err := ro.FindPassage(ctx, findInput)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	inner.AssertNumberOfCalls(t, "FindPassage", 1)
}
