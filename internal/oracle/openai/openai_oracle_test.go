package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evicite/internal/config"
	"evicite/internal/oracle"
	"evicite/internal/oracle/openai"
	"evicite/internal/port"
)

func newTestOracle(serverURL string) *openai.Oracle {
	cfg := &config.OracleProviderConfig{
		Provider:    "openai",
		APIKey:      "test-key",
		TimeoutSecs: 5,
	}
	return openai.NewOracleWithEndpoint(cfg, serverURL)
}

func chatBody(text, finishReason string) string {
	payload := map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message":       map[string]interface{}{"content": text},
				"finish_reason": finishReason,
			},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestFindPassage_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatBody(`{"found": true, "snippet": "the passage"}`, "stop"))
	}))
	defer srv.Close()

	out, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "the passage", out.Snippet)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
}

func TestFindPassage_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	var rlErr *oracle.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "openai", rlErr.Provider)
}

func TestFindPassage_TruncatedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatBody("{", "length"))
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}

func TestFindPassage_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
