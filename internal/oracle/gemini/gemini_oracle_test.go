package gemini_test

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
	"evicite/internal/oracle/gemini"
	"evicite/internal/port"
)

func newTestOracle(serverURL string) *gemini.Oracle {
	cfg := &config.OracleProviderConfig{
		Provider:    "gemini",
		APIKey:      "test-key",
		TimeoutSecs: 5,
	}
	return gemini.NewOracleWithEndpoint(cfg, serverURL)
}

func candidateBody(text string) string {
	payload := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestFindPassage_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, fmt.Sprint(req["contents"]), "CITATION:")

		fmt.Fprint(w, candidateBody(`{"found": true, "snippet": "o contrato é nulo"}`))
	}))
	defer srv.Close()

	out, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{
		CitationText: "contrato nulo",
		Excerpt:      "... o contrato é nulo de pleno direito ...",
	})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "o contrato é nulo", out.Snippet)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestFindPassage_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(`{"found": false, "snippet": ""}`))
	}))
	defer srv.Close()

	out, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestFindPassage_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	var rlErr *oracle.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, float64(30), rlErr.RetryAfter.Seconds())
}

func TestFindPassage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFindPassage_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	_, err := newTestOracle(srv.URL).FindPassage(context.Background(), port.OracleInput{CitationText: "x", Excerpt: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}
