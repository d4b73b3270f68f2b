package service

import (
	"context"
	"fmt"
	"log"

	"evicite/internal/domain"
	"evicite/internal/geometry"
	"evicite/internal/oracle"
	"evicite/internal/port"
	"evicite/internal/textnorm"
)

// ResolutionService locates a citation's quote inside a prepared source.
// Exact matching over normalized text comes first; the relevance oracle is a
// separate step so the caller can record the fallback transition before any
// provider is consulted.
type ResolutionService interface {
	ResolveExact(ctx context.Context, src *PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error)
	ResolveViaOracle(ctx context.Context, src *PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error)
}

type resolutionService struct {
	oracle port.RelevanceOracle
}

// NewResolutionService creates a new ResolutionService implementation.
func NewResolutionService(relevanceOracle port.RelevanceOracle) ResolutionService {
	return &resolutionService{oracle: relevanceOracle}
}

// ResolveExact returns the located span, domain.ErrEmptyQuote for blank
// quotes, and domain.ErrPassageNotFound when the normalized quote is not a
// literal substring of the document.
func (s *resolutionService) ResolveExact(_ context.Context, src *PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error) {
	query := textnorm.NormalizeQuery(citation.Quote)
	if query == "" {
		return nil, domain.ErrEmptyQuote
	}

	m, ok := textnorm.Locate(src.Norm, query)
	if !ok {
		return nil, domain.ErrPassageNotFound
	}
	return s.toSpan(src, m, domain.MethodExact), nil
}

// ResolveViaOracle asks the relevance oracle for the passage, window by
// window, and only accepts snippets that ground to a real span of the
// document. It returns domain.ErrPassageNotFound when the windows are
// exhausted and the oracle's error when a provider fails outright.
func (s *resolutionService) ResolveViaOracle(ctx context.Context, src *PreparedSource, citation *domain.CitationRecord) (*domain.ResolvedSpan, error) {
	log.Printf("resolutionService: consulting oracle for citation %s", citation.ID)

	for i, excerpt := range oracle.Windows(src.Layout, src.Text, citation.PageHint) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := s.oracle.FindPassage(ctx, port.OracleInput{
			CitationText: citation.Quote,
			Excerpt:      excerpt,
		})
		if err != nil {
			return nil, fmt.Errorf("oracle on window %d: %w", i, err)
		}
		if !out.Found || out.Snippet == "" {
			continue
		}

		// Grounding check: the snippet only counts if it resolves to a
		// real span of the document via the same exact-match path.
		snippetQuery := textnorm.NormalizeQuery(out.Snippet)
		if snippetQuery == "" {
			continue
		}
		m, ok := textnorm.Locate(src.Norm, snippetQuery)
		if !ok {
			log.Printf("resolutionService: oracle snippet for citation %s not grounded in document, discarding", citation.ID)
			continue
		}
		return s.toSpan(src, m, domain.MethodOracle), nil
	}

	return nil, domain.ErrPassageNotFound
}

func (s *resolutionService) toSpan(src *PreparedSource, m *textnorm.Match, method domain.ResolutionMethod) *domain.ResolvedSpan {
	_, pages := geometry.MapSpan(src.Layout, src.Text, m.Start, m.End)
	return &domain.ResolvedSpan{
		Start:     m.Start,
		End:       m.End,
		Pages:     pages,
		Method:    method,
		Ambiguous: m.Ambiguous,
	}
}
