package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"taskbot/internal/entities"
)

type ClaimRepositoryInterface interface {
	// TakeClaim атомарно проверяет свободный объём и вставляет задачу.
	// Отказ — *apperrors.ClaimRejectedError, без следов в БД.
	TakeClaim(ctx context.Context, assignmentID int64, executorID int64, volume decimal.Decimal) (int64, error)
	FreeVolume(ctx context.Context, assignmentID int64) (decimal.Decimal, error)
	MyOpenClaims(ctx context.Context, executorID int64) ([]entities.Claim, error)
	OpenClaimsByAssignment(ctx context.Context, assignmentID int64) ([]entities.Claim, error)
	DeleteMyOpenClaim(ctx context.Context, claimID int64, executorID int64) (bool, error)
}

type ClaimRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClaimRepository(storage *pgxpool.Pool, logger *zap.Logger) ClaimRepositoryInterface {
	return &ClaimRepository{storage: storage, logger: logger}
}

// TakeClaim держит блокировку строки задания на время проверки и вставки:
// конкурирующая заявка ждёт на FOR UPDATE и перечитывает свободный объём уже
// после коммита первой. Отсутствующее или закрытое задание считается заданием
// с нулевым общим объёмом.
func (r *ClaimRepository) TakeClaim(ctx context.Context, assignmentID int64, executorID int64, volume decimal.Decimal) (int64, error) {
	var claimID int64
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		total, taken, err := assignmentVolumes(ctx, tx, assignmentID, true)
		if err != nil {
			return err
		}
		if err := entities.CheckClaim(assignmentID, total, taken, volume); err != nil {
			return err
		}
		return tx.QueryRow(ctx,
			"INSERT INTO task_claims (assignment_id, executor_id, volume) VALUES ($1, $2, $3) RETURNING id",
			assignmentID, executorID, volume,
		).Scan(&claimID)
	})
	if err != nil {
		return 0, err
	}

	r.logger.Info("объём взят",
		zap.Int64("assignment_id", assignmentID),
		zap.Int64("executor_id", executorID),
		zap.String("volume", volume.String()),
		zap.Int64("claim_id", claimID))
	return claimID, nil
}

// FreeVolume читает общий и взятый объёмы одним согласованным снимком
// (обе выборки в одной транзакции).
func (r *ClaimRepository) FreeVolume(ctx context.Context, assignmentID int64) (decimal.Decimal, error) {
	var free decimal.Decimal
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		total, taken, err := assignmentVolumes(ctx, tx, assignmentID, false)
		if err != nil {
			return err
		}
		free = entities.FreeVolume(total, taken)
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return free, nil
}

func assignmentVolumes(ctx context.Context, tx pgx.Tx, assignmentID int64, lock bool) (total, taken decimal.Decimal, err error) {
	totalSQL := "SELECT total_volume FROM assignments WHERE id = $1 AND is_active = TRUE"
	if lock {
		totalSQL += " FOR UPDATE"
	}

	err = tx.QueryRow(ctx, totalSQL, assignmentID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		total, err = decimal.Zero, nil
	} else if err != nil {
		return total, taken, fmt.Errorf("ошибка чтения общего объёма задания %d: %w", assignmentID, err)
	}

	err = tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(volume), 0) FROM task_claims WHERE assignment_id = $1 AND done = FALSE",
		assignmentID,
	).Scan(&taken)
	if err != nil {
		return total, taken, fmt.Errorf("ошибка суммирования задач задания %d: %w", assignmentID, err)
	}
	return total, taken, nil
}

func (r *ClaimRepository) MyOpenClaims(ctx context.Context, executorID int64) ([]entities.Claim, error) {
	const sql = `
	SELECT id, assignment_id, executor_id, volume, done, created_at
	FROM task_claims
	WHERE executor_id = $1 AND done = FALSE
	ORDER BY created_at DESC`

	rows, err := r.storage.Query(ctx, sql, executorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач: %w", err)
	}
	defer rows.Close()

	var out []entities.Claim
	for rows.Next() {
		var c entities.Claim
		if err := rows.Scan(&c.ID, &c.AssignmentID, &c.ExecutorID, &c.Volume, &c.Done, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClaimRepository) OpenClaimsByAssignment(ctx context.Context, assignmentID int64) ([]entities.Claim, error) {
	const sql = `
	SELECT id, assignment_id, executor_id, volume, done, created_at
	FROM task_claims
	WHERE assignment_id = $1 AND done = FALSE
	ORDER BY created_at`

	rows, err := r.storage.Query(ctx, sql, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач задания %d: %w", assignmentID, err)
	}
	defer rows.Close()

	var out []entities.Claim
	for rows.Next() {
		var c entities.Claim
		if err := rows.Scan(&c.ID, &c.AssignmentID, &c.ExecutorID, &c.Volume, &c.Done, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteMyOpenClaim удаляет задачу только её исполнителю и только пока done = FALSE.
func (r *ClaimRepository) DeleteMyOpenClaim(ctx context.Context, claimID int64, executorID int64) (bool, error) {
	var ok bool
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"DELETE FROM task_claims WHERE id = $1 AND executor_id = $2 AND done = FALSE",
			claimID, executorID)
		if err != nil {
			return fmt.Errorf("ошибка удаления задачи %d: %w", claimID, err)
		}
		ok = tag.RowsAffected() > 0
		return nil
	})
	return ok, err
}
