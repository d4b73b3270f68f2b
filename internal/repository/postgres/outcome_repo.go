package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"evicite/internal/domain"
	"evicite/internal/port"
)

type outcomeRepo struct {
	db *sqlx.DB
}

// NewOutcomeRepo creates a new PostgreSQL-backed OutcomeRepository.
func NewOutcomeRepo(db *sqlx.DB) port.OutcomeRepository {
	return &outcomeRepo{db: db}
}

func (r *outcomeRepo) Create(ctx context.Context, outcome *domain.ProcessingOutcome) error {
	outcome.CreatedAt = time.Now().UTC()

	// One terminal outcome per citation; reprocessing overwrites it.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO outcomes (
			citation_id, run_id, status, method, ambiguous, category,
			failure_kind, failure_detail, source_identity, artifact_key,
			span_start, span_end, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (citation_id) DO UPDATE SET
			status = EXCLUDED.status, method = EXCLUDED.method,
			ambiguous = EXCLUDED.ambiguous, failure_kind = EXCLUDED.failure_kind,
			failure_detail = EXCLUDED.failure_detail, source_identity = EXCLUDED.source_identity,
			artifact_key = EXCLUDED.artifact_key, span_start = EXCLUDED.span_start,
			span_end = EXCLUDED.span_end, created_at = EXCLUDED.created_at`,
		outcome.CitationID, outcome.RunID, outcome.Status, outcome.Method,
		outcome.Ambiguous, outcome.Category, outcome.FailureKind, outcome.FailureDetail,
		outcome.SourceIdentity, outcome.ArtifactKey, outcome.SpanStart, outcome.SpanEnd,
		outcome.CreatedAt)
	if err != nil {
		return fmt.Errorf("outcomeRepo.Create: %w", err)
	}
	return nil
}

func (r *outcomeRepo) GetByCitation(ctx context.Context, citationID uuid.UUID) (*domain.ProcessingOutcome, error) {
	var o domain.ProcessingOutcome
	err := r.db.GetContext(ctx, &o, "SELECT * FROM outcomes WHERE citation_id = $1", citationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("outcomeRepo.GetByCitation: %w", err)
	}
	return &o, nil
}

func (r *outcomeRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.ProcessingOutcome, error) {
	var os []domain.ProcessingOutcome
	err := r.db.SelectContext(ctx, &os,
		"SELECT * FROM outcomes WHERE run_id = $1 ORDER BY created_at ASC, citation_id ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("outcomeRepo.ListByRun: %w", err)
	}
	return os, nil
}
