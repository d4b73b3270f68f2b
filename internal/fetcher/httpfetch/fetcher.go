package httpfetch

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/net/html"

	"evicite/internal/domain"
	"evicite/internal/port"
)

const defaultMaxBytes = 64 << 20 // 64 MiB

var pdfMagic = []byte("%PDF")

// Fetcher acquires source documents over HTTP. Locators may point at the
// document itself or at an HTML landing page; landing pages are scraped for
// the first link to a .pdf file.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch resolves a locator to document bytes. The returned identity is the
// hex blake3 hash of the content, stable across runs and mirrors.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (*port.FetchOutput, error) {
	body, contentType, finalURL, err := f.get(ctx, locator)
	if err != nil {
		return nil, err
	}

	if !isPDF(body, contentType) {
		if !isHTML(body, contentType) {
			return nil, fmt.Errorf("%w: content type %q", domain.ErrUnsupportedContent, contentType)
		}
		link, ok := findPDFLink(body, finalURL)
		if !ok {
			return nil, fmt.Errorf("%w: landing page has no document link", domain.ErrUnsupportedContent)
		}
		log.Printf("httpfetch.Fetch: following document link %s", link)
		body, contentType, finalURL, err = f.get(ctx, link)
		if err != nil {
			return nil, err
		}
		if !isPDF(body, contentType) {
			return nil, fmt.Errorf("%w: linked content type %q", domain.ErrUnsupportedContent, contentType)
		}
	}

	sum := blake3.Sum256(body)
	return &port.FetchOutput{
		Identity:    hex.EncodeToString(sum[:]),
		ResolvedURL: finalURL,
		ContentType: "application/pdf",
		Bytes:       body,
	}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: invalid locator %q: %v", domain.ErrSourceUnreachable, rawURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: %v", domain.ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("%w: status %d from %s", domain.ErrSourceUnreachable, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: reading body: %v", domain.ErrSourceUnreachable, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", "", fmt.Errorf("%w: document exceeds %d bytes", domain.ErrUnsupportedContent, f.maxBytes)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return body, resp.Header.Get("Content-Type"), finalURL, nil
}

func isPDF(body []byte, contentType string) bool {
	if bytes.HasPrefix(body, pdfMagic) {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "application/pdf")
}

func isHTML(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := bytes.ToLower(body[:min(len(body), 512)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype html"))
}

// findPDFLink walks an HTML document for the first anchor whose href points
// at a .pdf, resolved against the page URL.
func findPDFLink(body []byte, pageURL string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				resolved := base.ResolveReference(ref)
				if strings.HasSuffix(strings.ToLower(resolved.Path), ".pdf") {
					found = resolved.String()
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if walk(doc) {
		return found, true
	}
	return "", false
}
