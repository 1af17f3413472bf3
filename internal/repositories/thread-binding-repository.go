package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	apperrors "taskbot/pkg/errors"
)

type ThreadBindingRepositoryInterface interface {
	UpsertBinding(ctx context.Context, binding entities.ThreadBinding) error
	GetBinding(ctx context.Context, workType string) (*entities.ThreadBinding, error)
	ListBindings(ctx context.Context) ([]entities.ThreadBinding, error)
}

type ThreadBindingRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewThreadBindingRepository(storage *pgxpool.Pool, logger *zap.Logger) ThreadBindingRepositoryInterface {
	return &ThreadBindingRepository{storage: storage, logger: logger}
}

func (r *ThreadBindingRepository) UpsertBinding(ctx context.Context, binding entities.ThreadBinding) error {
	const sql = `
	INSERT INTO thread_bindings (work_type, thread_id)
	VALUES ($1, $2)
	ON CONFLICT (work_type) DO UPDATE SET thread_id = EXCLUDED.thread_id`

	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql, binding.WorkType, binding.ThreadID); err != nil {
			return fmt.Errorf("ошибка привязки темы для %q: %w", binding.WorkType, err)
		}
		r.logger.Info("тема привязана",
			zap.String("work_type", binding.WorkType),
			zap.Int64("thread_id", binding.ThreadID))
		return nil
	})
}

func (r *ThreadBindingRepository) GetBinding(ctx context.Context, workType string) (*entities.ThreadBinding, error) {
	var b entities.ThreadBinding
	err := r.storage.QueryRow(ctx,
		"SELECT work_type, thread_id FROM thread_bindings WHERE work_type = $1", workType).
		Scan(&b.WorkType, &b.ThreadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения привязки темы %q: %w", workType, err)
	}
	return &b, nil
}

func (r *ThreadBindingRepository) ListBindings(ctx context.Context) ([]entities.ThreadBinding, error) {
	rows, err := r.storage.Query(ctx, "SELECT work_type, thread_id FROM thread_bindings ORDER BY work_type")
	if err != nil {
		return nil, fmt.Errorf("ошибка получения привязок тем: %w", err)
	}
	defer rows.Close()

	var out []entities.ThreadBinding
	for rows.Next() {
		var b entities.ThreadBinding
		if err := rows.Scan(&b.WorkType, &b.ThreadID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
