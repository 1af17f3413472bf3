package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	apperrors "taskbot/pkg/errors"
)

type CustomerRepositoryInterface interface {
	ListCustomers(ctx context.Context) ([]entities.Customer, error)
	FindCustomer(ctx context.Context, id int64) (*entities.Customer, error)
}

type CustomerRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCustomerRepository(storage *pgxpool.Pool, logger *zap.Logger) CustomerRepositoryInterface {
	return &CustomerRepository{storage: storage, logger: logger}
}

// ListCustomers — активные записи справочника, по алфавиту, для меню выбора.
func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]entities.Customer, error) {
	sql, args, err := psql.
		Select("id", "name", "is_active").
		From("customers").
		Where(sq.Eq{"is_active": true}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказчиков: %w", err)
	}
	defer rows.Close()

	var out []entities.Customer
	for rows.Next() {
		var c entities.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CustomerRepository) FindCustomer(ctx context.Context, id int64) (*entities.Customer, error) {
	var c entities.Customer
	err := r.storage.QueryRow(ctx, "SELECT id, name, is_active FROM customers WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказчика %d: %w", id, err)
	}
	return &c, nil
}
