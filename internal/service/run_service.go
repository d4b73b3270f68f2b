package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"evicite/internal/domain"
	"evicite/internal/port"
)

// CitationInput is one citation submitted for verification.
type CitationInput struct {
	Quote         string                  `json:"quote"`
	SourceLocator string                  `json:"source_locator"`
	PageHint      *int                    `json:"page_hint,omitempty"`
	Category      domain.CitationCategory `json:"category"`
}

// CreateRunInput is the DTO for submitting a verification run.
type CreateRunInput struct {
	Label     string          `json:"label"`
	Citations []CitationInput `json:"citations"`
}

// HighlightStyles holds the per-category annotation styles.
type HighlightStyles struct {
	Primary   domain.HighlightStyle
	Secondary domain.HighlightStyle
	Oracle    domain.HighlightStyle
}

// styleFor picks the style for a resolved citation. Oracle-located passages
// get their own color regardless of category, so reviewers can tell
// verbatim matches from semantically identified ones at a glance.
func (h HighlightStyles) styleFor(category domain.CitationCategory, method domain.ResolutionMethod) domain.HighlightStyle {
	if method == domain.MethodOracle {
		return h.Oracle
	}
	if category == domain.CategorySecondary {
		return h.Secondary
	}
	return h.Primary
}

// RunService manages verification runs end to end: ingest, pipeline
// execution, outcomes and reporting.
type RunService interface {
	CreateRun(ctx context.Context, input *CreateRunInput) (*domain.VerificationRun, error)
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.VerificationRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.VerificationRun, int, error)
	ListOutcomes(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error)
	GetReport(ctx context.Context, runID uuid.UUID) (*domain.RunReport, error)
	CancelRun(ctx context.Context, runID uuid.UUID) error
	ArtifactURL(ctx context.Context, identity string) (string, error)
	ExecuteRun(ctx context.Context, run *domain.VerificationRun)
}

type runService struct {
	runRepo      port.RunRepository
	citationRepo port.CitationRepository
	outcomeRepo  port.OutcomeRepository
	sourceRepo   port.SourceRepository
	storage      port.ObjectStorage
	sources      SourceService
	resolver     ResolutionService
	annotations  AnnotationService
	styles       HighlightStyles
	bucket       string
	concurrency  int
	presignSecs  int64

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewRunService creates a new RunService implementation.
func NewRunService(
	runRepo port.RunRepository,
	citationRepo port.CitationRepository,
	outcomeRepo port.OutcomeRepository,
	sourceRepo port.SourceRepository,
	storage port.ObjectStorage,
	sources SourceService,
	resolver ResolutionService,
	annotations AnnotationService,
	styles HighlightStyles,
	bucket string,
	concurrency int,
	presignSecs int64,
) RunService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &runService{
		runRepo:      runRepo,
		citationRepo: citationRepo,
		outcomeRepo:  outcomeRepo,
		sourceRepo:   sourceRepo,
		storage:      storage,
		sources:      sources,
		resolver:     resolver,
		annotations:  annotations,
		styles:       styles,
		bucket:       bucket,
		concurrency:  concurrency,
		presignSecs:  presignSecs,
		cancels:      make(map[uuid.UUID]context.CancelFunc),
	}
}

func (s *runService) CreateRun(ctx context.Context, input *CreateRunInput) (*domain.VerificationRun, error) {
	if len(input.Citations) == 0 {
		return nil, domain.ErrEmptyRun
	}

	run := &domain.VerificationRun{
		ID:     uuid.New(),
		Status: domain.RunStatusPending,
		Label:  input.Label,
		Total:  len(input.Citations),
	}

	citations := make([]domain.CitationRecord, 0, len(input.Citations))
	for _, in := range input.Citations {
		category := in.Category
		if category == "" {
			category = domain.CategoryPrimary
		}
		if !domain.ValidCategories[category] {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, in.Category)
		}
		if in.SourceLocator == "" {
			return nil, fmt.Errorf("citation is missing a source locator")
		}
		citations = append(citations, domain.CitationRecord{
			ID:            uuid.New(),
			RunID:         run.ID,
			Ordinal:       len(citations),
			Quote:         in.Quote,
			SourceLocator: in.SourceLocator,
			PageHint:      in.PageHint,
			Category:      category,
			State:         domain.StatePending,
		})
	}

	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := s.citationRepo.CreateBatch(ctx, citations); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *runService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.VerificationRun, error) {
	return s.runRepo.GetByID(ctx, runID)
}

func (s *runService) ListRuns(ctx context.Context, offset, limit int) ([]domain.VerificationRun, int, error) {
	return s.runRepo.List(ctx, offset, limit)
}

func (s *runService) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error) {
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.outcomeRepo.ListByRun(ctx, runID)
}

func (s *runService) GetReport(ctx context.Context, runID uuid.UUID) (*domain.RunReport, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.outcomeRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &domain.RunReport{
		RunID:         runID,
		Status:        run.Status,
		Total:         run.Total,
		ByStatus:      make(map[domain.OutcomeStatus]int),
		ByFailureKind: make(map[domain.FailureKind]int),
		ByMethod:      make(map[domain.ResolutionMethod]int),
	}
	for _, o := range outcomes {
		report.ByStatus[o.Status]++
		if o.FailureKind != domain.FailureNone {
			report.ByFailureKind[o.FailureKind]++
		}
		if o.Method != domain.MethodNone {
			report.ByMethod[o.Method]++
		}
		if o.Ambiguous {
			report.AmbiguousCount++
		}
	}
	return report, nil
}

func (s *runService) CancelRun(ctx context.Context, runID uuid.UUID) error {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	switch run.Status {
	case domain.RunStatusPending, domain.RunStatusRunning:
	default:
		return domain.ErrRunNotCancelable
	}

	run.Status = domain.RunStatusCanceled
	now := time.Now().UTC()
	run.CompletedAt = &now
	if err := s.runRepo.UpdateStatus(ctx, run); err != nil {
		return err
	}

	s.mu.Lock()
	if cancel, ok := s.cancels[runID]; ok {
		cancel()
	}
	s.mu.Unlock()
	return nil
}

func (s *runService) ArtifactURL(ctx context.Context, identity string) (string, error) {
	src, err := s.sourceRepo.GetByIdentity(ctx, identity)
	if err != nil {
		return "", err
	}
	if src.AnnotatedKey == "" {
		return "", domain.ErrArtifactUnavailable
	}
	return s.storage.GetPresignedURL(ctx, s.bucket, src.AnnotatedKey, s.presignSecs)
}

// ExecuteRun processes every citation of a claimed run. Citations sharing a
// source locator are handled by the same goroutine, in submission order, so
// each derived artifact has a single writer.
func (s *runService) ExecuteRun(ctx context.Context, run *domain.VerificationRun) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[run.ID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.cancels, run.ID)
		s.mu.Unlock()
	}()

	citations, err := s.citationRepo.ListByRun(runCtx, run.ID)
	if err != nil {
		log.Printf("runService.ExecuteRun: listing citations for %s: %v", run.ID, err)
		return
	}

	// Group by locator, preserving both submission order within a group
	// and the order groups first appear.
	groups := make(map[string][]domain.CitationRecord)
	var order []string
	for _, c := range citations {
		if _, ok := groups[c.SourceLocator]; !ok {
			order = append(order, c.SourceLocator)
		}
		groups[c.SourceLocator] = append(groups[c.SourceLocator], c)
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, s.concurrency)
		tallyMu sync.Mutex
		tally   = map[domain.OutcomeStatus]int{}
	)

	for _, locator := range order {
		group := groups[locator]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			for i := range group {
				if runCtx.Err() != nil {
					return
				}
				outcome := s.processCitation(runCtx, &group[i])
				tallyMu.Lock()
				tally[outcome.Status]++
				tallyMu.Unlock()
			}
		}()
	}
	wg.Wait()

	// A run canceled mid-flight keeps its canceled status; otherwise the
	// run completes even when individual citations failed.
	current, err := s.runRepo.GetByID(context.Background(), run.ID)
	if err != nil {
		log.Printf("runService.ExecuteRun: reloading run %s: %v", run.ID, err)
		return
	}
	current.Annotated = tally[domain.OutcomeAnnotated]
	current.Unresolved = tally[domain.OutcomeUnresolved]
	current.Failed = tally[domain.OutcomeFailed]
	if current.Status == domain.RunStatusRunning {
		current.Status = domain.RunStatusCompleted
		now := time.Now().UTC()
		current.CompletedAt = &now
	}
	if err := s.runRepo.UpdateStatus(context.Background(), current); err != nil {
		log.Printf("runService.ExecuteRun: finalizing run %s: %v", run.ID, err)
		return
	}
	log.Printf("runService.ExecuteRun: run %s done (annotated=%d unresolved=%d failed=%d)",
		run.ID, current.Annotated, current.Unresolved, current.Failed)
}

// processCitation drives one citation through the pipeline and records its
// terminal outcome. It never returns an error; every failure mode maps to
// an outcome so one bad citation cannot poison the rest of the run.
func (s *runService) processCitation(ctx context.Context, citation *domain.CitationRecord) *domain.ProcessingOutcome {
	outcome := &domain.ProcessingOutcome{
		CitationID: citation.ID,
		RunID:      citation.RunID,
		Category:   citation.Category,
	}

	s.setState(citation, domain.StateAcquiring)

	src, err := s.sources.Prepare(ctx, citation.SourceLocator)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCorruptedDocument),
			errors.Is(err, domain.ErrEncryptedDocument),
			errors.Is(err, domain.ErrNoExtractableText):
			outcome.Status = domain.OutcomeUnresolved
			outcome.FailureKind = domain.FailureExtraction
		default:
			outcome.Status = domain.OutcomeFailed
			outcome.FailureKind = domain.FailureAcquisition
		}
		outcome.FailureDetail = err.Error()
		return s.finish(ctx, citation, outcome)
	}
	outcome.SourceIdentity = src.Identity

	span, err := s.resolver.ResolveExact(ctx, src, citation)
	if errors.Is(err, domain.ErrPassageNotFound) {
		// Record the fallback transition before any provider is consulted,
		// so the citation's state history shows the oracle was involved
		// even when it comes up empty.
		s.setState(citation, domain.StateOracleFallback)
		span, err = s.resolver.ResolveViaOracle(ctx, src, citation)
	}
	if err != nil {
		outcome.Status = domain.OutcomeUnresolved
		switch {
		case errors.Is(err, domain.ErrEmptyQuote):
			outcome.FailureDetail = domain.ErrEmptyQuote.Error()
		case errors.Is(err, domain.ErrPassageNotFound):
			outcome.FailureDetail = domain.ErrPassageNotFound.Error()
		default:
			outcome.FailureKind = domain.FailureOracle
			outcome.FailureDetail = err.Error()
		}
		return s.finish(ctx, citation, outcome)
	}

	if span.Method == domain.MethodExact {
		s.setState(citation, domain.StateLocated)
	}
	outcome.Method = span.Method
	outcome.Ambiguous = span.Ambiguous
	outcome.SpanStart = span.Start
	outcome.SpanEnd = span.End

	style := s.styles.styleFor(citation.Category, span.Method)
	key, err := s.annotations.Apply(ctx, src, &domain.AnnotationRecord{
		CitationID: citation.ID,
		Identity:   src.Identity,
		Span:       *span,
		Style:      style,
	}, citation.Quote)
	if err != nil {
		// Resolution metadata survives even when rendering fails; only
		// the artifact is missing.
		outcome.Status = domain.OutcomeFailed
		outcome.FailureKind = domain.FailureAnnotation
		outcome.FailureDetail = err.Error()
		return s.finish(ctx, citation, outcome)
	}

	outcome.Status = domain.OutcomeAnnotated
	outcome.ArtifactKey = key
	return s.finish(ctx, citation, outcome)
}

func (s *runService) finish(ctx context.Context, citation *domain.CitationRecord, outcome *domain.ProcessingOutcome) *domain.ProcessingOutcome {
	var state domain.CitationState
	switch outcome.Status {
	case domain.OutcomeAnnotated:
		state = domain.StateAnnotated
	case domain.OutcomeUnresolved:
		state = domain.StateUnresolved
	default:
		state = domain.StateFailed
	}
	s.setState(citation, state)

	// Outcome persistence must survive run cancellation.
	if err := s.outcomeRepo.Create(context.Background(), outcome); err != nil {
		log.Printf("runService: persisting outcome for citation %s: %v", citation.ID, err)
	}
	return outcome
}

func (s *runService) setState(citation *domain.CitationRecord, state domain.CitationState) {
	citation.State = state
	if err := s.citationRepo.UpdateState(context.Background(), citation.ID, state); err != nil {
		log.Printf("runService: updating citation %s state to %s: %v", citation.ID, state, err)
	}
}
