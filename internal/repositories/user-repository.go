package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskbot/internal/entities"
)

type UserRepositoryInterface interface {
	UpsertUser(ctx context.Context, user entities.User) error
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	SetMembership(ctx context.Context, userID int64, isMember bool) error
	ListMemberIDs(ctx context.Context) ([]int64, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

// UpsertUser — идемпотентная регистрация: повторный вызов обновляет профиль.
func (r *UserRepository) UpsertUser(ctx context.Context, user entities.User) error {
	const sql = `
	INSERT INTO users (id, username, full_name, is_admin, is_member)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE
	  SET username = EXCLUDED.username,
	      full_name = EXCLUDED.full_name,
	      is_admin = EXCLUDED.is_admin,
	      is_member = EXCLUDED.is_member`

	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql, user.ID, user.Username, user.FullName, user.IsAdmin, user.IsMember); err != nil {
			return fmt.Errorf("ошибка upsert пользователя %d: %w", user.ID, err)
		}
		return nil
	})
}

func (r *UserRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var isAdmin bool
	err := r.storage.QueryRow(ctx, "SELECT is_admin FROM users WHERE id = $1", userID).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения флага is_admin: %w", err)
	}
	return isAdmin, nil
}

func (r *UserRepository) SetMembership(ctx context.Context, userID int64, isMember bool) error {
	const sql = `
	INSERT INTO users (id, is_member)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET is_member = EXCLUDED.is_member`

	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql, userID, isMember); err != nil {
			return fmt.Errorf("ошибка установки членства пользователя %d: %w", userID, err)
		}
		return nil
	})
}

func (r *UserRepository) ListMemberIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.storage.Query(ctx, "SELECT id FROM users WHERE is_member = TRUE")
	if err != nil {
		return nil, fmt.Errorf("ошибка получения участников: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
