package oracle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evicite/internal/oracle"
	"evicite/internal/port"
	"evicite/mocks"
)

var findInput = port.OracleInput{
	CitationText: "the contract is void",
	Excerpt:      "... the contract is void by operation of law ...",
}

func TestFallbackOracle_FirstProviderSucceeds(t *testing.T) {
	o1 := new(mocks.MockRelevanceOracle)
	o2 := new(mocks.MockRelevanceOracle)
	want := &port.OracleOutput{Snippet: "the contract is void", Found: true, ModelUsed: "m1"}
	o1.On("FindPassage", mock.Anything, findInput).Return(want, nil)

	fo := oracle.NewFallbackOracle(
		[]port.RelevanceOracle{o1, o2},
		[]string{"primary", "secondary"},
	)

	out, err := fo.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	o2.AssertNotCalled(t, "FindPassage", mock.Anything, mock.Anything)
}

func TestFallbackOracle_FallsThroughOnError(t *testing.T) {
	o1 := new(mocks.MockRelevanceOracle)
	o2 := new(mocks.MockRelevanceOracle)
	want := &port.OracleOutput{Found: false, ModelUsed: "m2"}
	o1.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("boom"))
	o2.On("FindPassage", mock.Anything, findInput).Return(want, nil)

	fo := oracle.NewFallbackOracle(
		[]port.RelevanceOracle{o1, o2},
		[]string{"primary", "secondary"},
	)

	out, err := fo.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestFallbackOracle_RateLimitOpensCircuit(t *testing.T) {
	o1 := new(mocks.MockRelevanceOracle)
	o2 := new(mocks.MockRelevanceOracle)
	want := &port.OracleOutput{Found: true, Snippet: "x"}
	o1.On("FindPassage", mock.Anything, findInput).Return(nil, oracle.NewRateLimitError("primary", errors.New("429"), 60)).Once()
	o2.On("FindPassage", mock.Anything, findInput).Return(want, nil).Twice()

	fo := oracle.NewFallbackOracle(
		[]port.RelevanceOracle{o1, o2},
		[]string{"primary", "secondary"},
	)

	// First call trips primary's circuit; second call must skip it entirely.
	_, err := fo.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	_, err = fo.FindPassage(context.Background(), findInput)
	require.NoError(t, err)
	o1.AssertNumberOfCalls(t, "FindPassage", 1)
}

func TestFallbackOracle_AllRateLimited(t *testing.T) {
	o1 := new(mocks.MockRelevanceOracle)
	o2 := new(mocks.MockRelevanceOracle)
	o1.On("FindPassage", mock.Anything, findInput).Return(nil, oracle.NewRateLimitError("primary", errors.New("429"), 60))
	o2.On("FindPassage", mock.Anything, findInput).Return(nil, oracle.NewRateLimitError("secondary", errors.New("429"), 30))

	fo := oracle.NewFallbackOracle(
		[]port.RelevanceOracle{o1, o2},
		[]string{"primary", "secondary"},
	)

	_, err := fo.FindPassage(context.Background(), findInput)
	require.Error(t, err)
	var rlErr *oracle.RateLimitError
	assert.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackOracle_EmptyChain(t *testing.T) {
	fo := oracle.NewFallbackOracle(nil, nil)

	_, err := fo.FindPassage(context.Background(), findInput)
	assert.ErrorIs(t, err, oracle.ErrNoProviders)

	// An empty chain is a configuration problem, not a rate limit; waiting
	// out a reset would never help.
	var rlErr *oracle.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestFallbackOracle_AllFail(t *testing.T) {
	o1 := new(mocks.MockRelevanceOracle)
	o2 := new(mocks.MockRelevanceOracle)
	o1.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("parse error"))
	o2.On("FindPassage", mock.Anything, findInput).Return(nil, errors.New("timeout"))

	fo := oracle.NewFallbackOracle(
		[]port.RelevanceOracle{o1, o2},
		[]string{"primary", "secondary"},
	)

	_, err := fo.FindPassage(context.Background(), findInput)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all oracle providers failed")
	assert.Contains(t, err.Error(), "timeout")
}
