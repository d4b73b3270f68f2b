package oracle_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"evicite/internal/oracle"
)

func TestRateLimitError_Message(t *testing.T) {
	underlying := errors.New("status 429")
	rlErr := oracle.NewRateLimitError("claude", underlying, 30)
	assert.Contains(t, rlErr.Error(), "claude rate limited")
	assert.Contains(t, rlErr.Error(), "30s")
}

func TestRateLimitError_Unwrap(t *testing.T) {
	underlying := errors.New("status 429")
	rlErr := oracle.NewRateLimitError("gemini", underlying, 60)
	assert.ErrorIs(t, rlErr, underlying)
}

func TestRateLimitError_DefaultRetryAfter(t *testing.T) {
	rlErr := oracle.NewRateLimitError("openai", fmt.Errorf("err"), 0)
	assert.Equal(t, 60*time.Second, rlErr.RetryAfter)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, oracle.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, oracle.ParseRetryAfterHeader("soon"))
	assert.Equal(t, 42, oracle.ParseRetryAfterHeader("42"))
}
