package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"evicite/internal/domain"
	"evicite/internal/port"
)

type sourceRepo struct {
	db *sqlx.DB
}

// NewSourceRepo creates a new PostgreSQL-backed SourceRepository.
func NewSourceRepo(db *sqlx.DB) port.SourceRepository {
	return &sourceRepo{db: db}
}

func (r *sourceRepo) Upsert(ctx context.Context, src *domain.SourceRecord) error {
	now := time.Now().UTC()
	if src.CreatedAt.IsZero() {
		src.CreatedAt = now
	}
	src.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (
			identity, resolved_url, content_hash, page_count,
			original_key, annotated_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (identity) DO UPDATE SET
			resolved_url = EXCLUDED.resolved_url, page_count = EXCLUDED.page_count,
			original_key = EXCLUDED.original_key, annotated_key = EXCLUDED.annotated_key,
			updated_at = EXCLUDED.updated_at`,
		src.Identity, src.ResolvedURL, src.ContentHash, src.PageCount,
		src.OriginalKey, src.AnnotatedKey, src.CreatedAt, src.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sourceRepo.Upsert: %w", err)
	}
	return nil
}

func (r *sourceRepo) GetByIdentity(ctx context.Context, identity string) (*domain.SourceRecord, error) {
	var src domain.SourceRecord
	err := r.db.GetContext(ctx, &src, "SELECT * FROM sources WHERE identity = $1", identity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, fmt.Errorf("sourceRepo.GetByIdentity: %w", err)
	}
	return &src, nil
}
