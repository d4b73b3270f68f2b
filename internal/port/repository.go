package port

import (
	"context"

	"github.com/google/uuid"

	"evicite/internal/domain"
)

// RunRepository persists verification runs.
type RunRepository interface {
	Create(ctx context.Context, run *domain.VerificationRun) error
	GetByID(ctx context.Context, runID uuid.UUID) (*domain.VerificationRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.VerificationRun, int, error)
	UpdateStatus(ctx context.Context, run *domain.VerificationRun) error
	ClaimPending(ctx context.Context, limit int) ([]domain.VerificationRun, error)
}

// CitationRepository persists citation records.
type CitationRepository interface {
	CreateBatch(ctx context.Context, citations []domain.CitationRecord) error
	GetByID(ctx context.Context, citationID uuid.UUID) (*domain.CitationRecord, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.CitationRecord, error)
	UpdateState(ctx context.Context, citationID uuid.UUID, state domain.CitationState) error
}

// OutcomeRepository persists per-citation processing outcomes.
type OutcomeRepository interface {
	Create(ctx context.Context, outcome *domain.ProcessingOutcome) error
	GetByCitation(ctx context.Context, citationID uuid.UUID) (*domain.ProcessingOutcome, error)
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error)
}

// SourceRepository persists acquired source artifact references.
type SourceRepository interface {
	Upsert(ctx context.Context, src *domain.SourceRecord) error
	GetByIdentity(ctx context.Context, identity string) (*domain.SourceRecord, error)
}
