package httpfetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evicite/internal/domain"
	"evicite/internal/fetcher/httpfetch"
)

var fakePDF = []byte("%PDF-1.7\nfake body\n%%EOF")

func newFetcher() *httpfetch.Fetcher {
	return httpfetch.NewFetcher(5*time.Second, "evicite-test/1.0", 1<<20)
}

func TestFetch_DirectPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF)
	}))
	defer srv.Close()

	out, err := newFetcher().Fetch(context.Background(), srv.URL+"/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, fakePDF, out.Bytes)
	assert.Len(t, out.Identity, 64)
	assert.Equal(t, "application/pdf", out.ContentType)
}

func TestFetch_PDFWithWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(fakePDF)
	}))
	defer srv.Close()

	out, err := newFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, fakePDF, out.Bytes)
}

func TestFetch_LandingPageScrape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/case/123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<a href="/about">About</a>
			<a href="/files/decision.pdf">Full decision</a>
		</body></html>`)
	})
	mux.HandleFunc("/files/decision.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := newFetcher().Fetch(context.Background(), srv.URL+"/case/123")
	require.NoError(t, err)
	assert.Equal(t, fakePDF, out.Bytes)
	assert.Equal(t, srv.URL+"/files/decision.pdf", out.ResolvedURL)
}

func TestFetch_LandingPageWithoutPDFLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/about">About</a></body></html>`)
	}))
	defer srv.Close()

	_, err := newFetcher().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrUnsupportedContent)
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
}

func TestFetch_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newFetcher().Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrSourceUnreachable)
}

func TestFetch_IdentityStableAcrossMirrors(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(fakePDF)
	})
	srvA := httptest.NewServer(handler)
	defer srvA.Close()
	srvB := httptest.NewServer(handler)
	defer srvB.Close()

	outA, err := newFetcher().Fetch(context.Background(), srvA.URL)
	require.NoError(t, err)
	outB, err := newFetcher().Fetch(context.Background(), srvB.URL)
	require.NoError(t, err)
	assert.Equal(t, outA.Identity, outB.Identity)
	assert.NotEqual(t, outA.ResolvedURL, outB.ResolvedURL)
}

func TestFetch_OversizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7\n"))
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := httpfetch.NewFetcher(5*time.Second, "", 1024)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrUnsupportedContent)
}
