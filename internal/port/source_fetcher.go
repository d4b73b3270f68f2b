package port

import "context"

// FetchOutput carries the acquired source bytes and their canonical identity.
type FetchOutput struct {
	Identity    string // blake3 content hash, stable across runs
	ResolvedURL string // final URL after redirects / link scraping
	ContentType string
	Bytes       []byte
}

// SourceFetcher acquires raw document bytes for a source locator.
// Implementations must not retry acquisition per citation; deduplication
// happens above this boundary.
type SourceFetcher interface {
	Fetch(ctx context.Context, locator string) (*FetchOutput, error)
}
