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

type citationRepo struct {
	db *sqlx.DB
}

// NewCitationRepo creates a new PostgreSQL-backed CitationRepository.
func NewCitationRepo(db *sqlx.DB) port.CitationRepository {
	return &citationRepo{db: db}
}

func (r *citationRepo) CreateBatch(ctx context.Context, citations []domain.CitationRecord) error {
	if len(citations) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range citations {
		citations[i].CreatedAt = now
		citations[i].UpdatedAt = now
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO citations (
			id, run_id, ordinal, quote, source_locator, page_hint, category, state, created_at, updated_at
		) VALUES (
			:id, :run_id, :ordinal, :quote, :source_locator, :page_hint, :category, :state, :created_at, :updated_at
		)`, citations)
	if err != nil {
		return fmt.Errorf("citationRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *citationRepo) GetByID(ctx context.Context, citationID uuid.UUID) (*domain.CitationRecord, error) {
	var c domain.CitationRecord
	err := r.db.GetContext(ctx, &c, "SELECT * FROM citations WHERE id = $1", citationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCitationNotFound
		}
		return nil, fmt.Errorf("citationRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *citationRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.CitationRecord, error) {
	var cs []domain.CitationRecord
	err := r.db.SelectContext(ctx, &cs,
		"SELECT * FROM citations WHERE run_id = $1 ORDER BY ordinal ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("citationRepo.ListByRun: %w", err)
	}
	return cs, nil
}

func (r *citationRepo) UpdateState(ctx context.Context, citationID uuid.UUID, state domain.CitationState) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE citations SET state = $1, updated_at = $2 WHERE id = $3",
		state, time.Now().UTC(), citationID)
	if err != nil {
		return fmt.Errorf("citationRepo.UpdateState: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCitationNotFound
	}
	return nil
}
