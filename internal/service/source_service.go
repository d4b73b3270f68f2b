package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"evicite/internal/domain"
	"evicite/internal/port"
	"evicite/internal/textnorm"
)

// PreparedSource is a fetched, extracted and normalized source document,
// ready for span resolution and annotation.
type PreparedSource struct {
	Identity string
	Bytes    []byte
	Layout   *port.ExtractOutput
	Text     string
	Norm     *textnorm.NormalizedText
	Record   *domain.SourceRecord
}

// SourceService acquires and prepares source documents. Each locator is
// fetched at most once per process; concurrent citations pointing at the
// same locator share one in-flight preparation.
type SourceService interface {
	Prepare(ctx context.Context, locator string) (*PreparedSource, error)
	OriginalKey(identity string) string
	AnnotatedKey(identity string) string
}

type sourceService struct {
	fetcher    port.SourceFetcher
	extractor  port.TextExtractor
	storage    port.ObjectStorage
	sourceRepo port.SourceRepository
	bucket     string

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*PreparedSource // keyed by locator
}

// NewSourceService creates a new SourceService implementation.
func NewSourceService(
	fetcher port.SourceFetcher,
	extractor port.TextExtractor,
	storage port.ObjectStorage,
	sourceRepo port.SourceRepository,
	bucket string,
) SourceService {
	return &sourceService{
		fetcher:    fetcher,
		extractor:  extractor,
		storage:    storage,
		sourceRepo: sourceRepo,
		bucket:     bucket,
		cache:      make(map[string]*PreparedSource),
	}
}

func (s *sourceService) OriginalKey(identity string) string {
	return fmt.Sprintf("sources/%s/original.pdf", identity)
}

func (s *sourceService) AnnotatedKey(identity string) string {
	return fmt.Sprintf("sources/%s/annotated.pdf", identity)
}

func (s *sourceService) Prepare(ctx context.Context, locator string) (*PreparedSource, error) {
	s.mu.RLock()
	if src, ok := s.cache[locator]; ok {
		s.mu.RUnlock()
		return src, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.group.Do(locator, func() (interface{}, error) {
		return s.prepare(ctx, locator)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PreparedSource), nil
}

func (s *sourceService) prepare(ctx context.Context, locator string) (*PreparedSource, error) {
	fetched, err := s.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("acquiring %q: %w", locator, err)
	}

	extracted, err := s.extractor.Extract(ctx, fetched.Bytes)
	if err != nil {
		return nil, fmt.Errorf("extracting %q: %w", locator, err)
	}

	text := extracted.Text()
	src := &PreparedSource{
		Identity: fetched.Identity,
		Bytes:    fetched.Bytes,
		Layout:   extracted,
		Text:     text,
		Norm:     textnorm.Normalize(text),
	}

	record := &domain.SourceRecord{
		Identity:    fetched.Identity,
		ResolvedURL: fetched.ResolvedURL,
		ContentHash: fetched.Identity,
		PageCount:   len(extracted.Pages),
		OriginalKey: s.OriginalKey(fetched.Identity),
	}

	// Keep the pristine bytes in object storage so annotation always
	// renders from the same original, regardless of mirror drift.
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         record.OriginalKey,
		Body:        bytes.NewReader(fetched.Bytes),
		ContentType: "application/pdf",
		Size:        int64(len(fetched.Bytes)),
	}); err != nil {
		return nil, fmt.Errorf("storing original for %q: %w", locator, err)
	}

	if err := s.sourceRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting source %s: %w", fetched.Identity, err)
	}
	src.Record = record

	s.mu.Lock()
	s.cache[locator] = src
	s.mu.Unlock()

	log.Printf("sourceService.Prepare: %q resolved to %s (%d pages, %d bytes)",
		locator, fetched.Identity, record.PageCount, len(fetched.Bytes))
	return src, nil
}
