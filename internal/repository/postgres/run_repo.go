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

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.VerificationRun) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_runs (
			id, status, label, total, annotated, unresolved, failed,
			started_at, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		run.ID, run.Status, run.Label, run.Total, run.Annotated, run.Unresolved, run.Failed,
		run.StartedAt, run.CompletedAt, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, runID uuid.UUID) (*domain.VerificationRun, error) {
	var run domain.VerificationRun
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM verification_runs WHERE id = $1", runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, offset, limit int) ([]domain.VerificationRun, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM verification_runs")
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List count: %w", err)
	}

	var runs []domain.VerificationRun
	err = r.db.SelectContext(ctx, &runs,
		"SELECT * FROM verification_runs ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, run *domain.VerificationRun) error {
	run.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE verification_runs SET
			status = $1, total = $2, annotated = $3, unresolved = $4, failed = $5,
			started_at = $6, completed_at = $7, updated_at = $8
		 WHERE id = $9`,
		run.Status, run.Total, run.Annotated, run.Unresolved, run.Failed,
		run.StartedAt, run.CompletedAt, run.UpdatedAt, run.ID)
	if err != nil {
		return fmt.Errorf("runRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

// ClaimPending atomically flips up to limit pending runs to running, so
// only one worker picks up each run.
func (r *runRepo) ClaimPending(ctx context.Context, limit int) ([]domain.VerificationRun, error) {
	var runs []domain.VerificationRun
	err := r.db.SelectContext(ctx, &runs,
		`UPDATE verification_runs SET status = $1, started_at = NOW(), updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM verification_runs WHERE status = $2
			ORDER BY created_at ASC LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.RunStatusRunning, domain.RunStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("runRepo.ClaimPending: %w", err)
	}
	return runs, nil
}
