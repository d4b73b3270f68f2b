package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync"

	"github.com/zeebo/blake3"

	"evicite/internal/domain"
	"evicite/internal/geometry"
	"evicite/internal/port"
)

// AnnotationService writes highlight annotations into derived source
// artifacts. Per source it keeps the accumulated annotation set and renders
// the whole set onto a fresh copy of the stored original on every apply, so
// repeated runs over the same citations never stack duplicate marks.
type AnnotationService interface {
	Apply(ctx context.Context, src *PreparedSource, ann *domain.AnnotationRecord, note string) (string, error)
}

type annotationService struct {
	annotator  port.Annotator
	storage    port.ObjectStorage
	sourceRepo port.SourceRepository
	sources    SourceService
	bucket     string

	mu   sync.Mutex
	sets map[string]*annotationSet // keyed by source identity
}

type annotationSet struct {
	mu         sync.Mutex // single writer per source artifact
	original   []byte     // pristine bytes, fetched from storage once
	highlights []port.Highlight
	seen       map[string]bool
}

// NewAnnotationService creates a new AnnotationService implementation.
func NewAnnotationService(
	annotator port.Annotator,
	storage port.ObjectStorage,
	sourceRepo port.SourceRepository,
	sources SourceService,
	bucket string,
) AnnotationService {
	return &annotationService{
		annotator:  annotator,
		storage:    storage,
		sourceRepo: sourceRepo,
		sources:    sources,
		bucket:     bucket,
		sets:       make(map[string]*annotationSet),
	}
}

// Apply adds one highlight to the source's annotation set and re-renders
// the derived artifact. It returns the artifact's storage key.
func (s *annotationService) Apply(ctx context.Context, src *PreparedSource, ann *domain.AnnotationRecord, note string) (string, error) {
	set := s.setFor(ann.Identity)

	set.mu.Lock()
	defer set.mu.Unlock()

	h := buildHighlight(src, ann, note)
	if len(h.Rects) == 0 {
		return "", fmt.Errorf("annotating citation %s: span maps to no page geometry", ann.CitationID)
	}
	if !set.seen[h.ID] {
		set.seen[h.ID] = true
		set.highlights = append(set.highlights, h)
	}

	// Render from the stored original rather than whatever is in memory, so
	// a restarted process rebuilds the same artifact from the same bytes.
	if set.original == nil {
		original, err := s.storage.Download(ctx, s.bucket, s.sources.OriginalKey(ann.Identity))
		if err != nil {
			return "", fmt.Errorf("fetching original for %s: %w", ann.Identity, err)
		}
		set.original = original
	}

	rendered, err := s.annotator.Annotate(ctx, set.original, set.highlights)
	if err != nil {
		return "", fmt.Errorf("annotating citation %s: %w", ann.CitationID, err)
	}

	key := s.sources.AnnotatedKey(ann.Identity)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(rendered),
		ContentType: "application/pdf",
		Size:        int64(len(rendered)),
	}); err != nil {
		return "", fmt.Errorf("storing annotated artifact for %s: %w", ann.Identity, err)
	}

	src.Record.AnnotatedKey = key
	if err := s.sourceRepo.Upsert(ctx, src.Record); err != nil {
		return "", fmt.Errorf("persisting annotated key for %s: %w", ann.Identity, err)
	}

	log.Printf("annotationService.Apply: source %s now carries %d highlights", ann.Identity, len(set.highlights))
	return key, nil
}

func (s *annotationService) setFor(identity string) *annotationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[identity]
	if !ok {
		set = &annotationSet{seen: make(map[string]bool)}
		s.sets[identity] = set
	}
	return set
}

// buildHighlight maps a resolved span to page rectangles and derives a
// deterministic highlight ID from the source, span and style, so the same
// citation always produces the same annotation.
func buildHighlight(src *PreparedSource, ann *domain.AnnotationRecord, note string) port.Highlight {
	rects, _ := geometry.MapSpan(src.Layout, src.Text, ann.Span.Start, ann.Span.End)

	hasher := blake3.New()
	fmt.Fprintf(hasher, "%s|%d|%d|%.3f|%.3f|%.3f",
		ann.Identity, ann.Span.Start, ann.Span.End, ann.Style.R, ann.Style.G, ann.Style.B)
	sum := hasher.Sum(nil)

	return port.Highlight{
		ID:      hex.EncodeToString(sum[:16]),
		Rects:   rects,
		R:       ann.Style.R,
		G:       ann.Style.G,
		B:       ann.Style.B,
		Opacity: ann.Style.Opacity,
		Note:    note,
	}
}
