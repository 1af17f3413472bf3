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

const assignmentFields = "id, author_id, work_type, deadline_at, project, customer_id, customer, total_volume, comment, is_active, published_chat_id, published_message_id, created_at"

const (
	myAssignmentsLimit   = 50
	freeAssignmentsLimit = 100
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type AssignmentRepositoryInterface interface {
	CreateAssignment(ctx context.Context, a *entities.Assignment) (int64, error)
	FindAssignment(ctx context.Context, id int64) (*entities.Assignment, error)
	MarkPublished(ctx context.Context, id int64, chatID int64, messageID int64) error
	DisableAssignment(ctx context.Context, id int64) (bool, error)
	DeleteAssignment(ctx context.Context, id int64) (bool, error)
	MyAssignments(ctx context.Context, authorID int64) ([]entities.Assignment, error)
	ListActiveAssignments(ctx context.Context) ([]entities.Assignment, error)
}

type AssignmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &AssignmentRepository{storage: storage, logger: logger}
}

func scanAssignment(row pgx.Row) (*entities.Assignment, error) {
	var a entities.Assignment
	err := row.Scan(
		&a.ID, &a.AuthorID, &a.WorkType, &a.DeadlineAt, &a.Project,
		&a.CustomerID, &a.Customer, &a.TotalVolume, &a.Comment, &a.IsActive,
		&a.PublishedChatID, &a.PublishedMessageID, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) CreateAssignment(ctx context.Context, a *entities.Assignment) (int64, error) {
	const sql = `
	INSERT INTO assignments (author_id, work_type, deadline_at, project, customer_id, customer, total_volume, comment)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

	var id int64
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, sql,
			a.AuthorID, a.WorkType, a.DeadlineAt, a.Project,
			a.CustomerID, a.Customer, a.TotalVolume, a.Comment,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка создания задания: %w", err)
	}

	r.logger.Info("задание создано",
		zap.Int64("assignment_id", id),
		zap.Int64("author_id", a.AuthorID),
		zap.String("work_type", a.WorkType))
	return id, nil
}

func (r *AssignmentRepository) FindAssignment(ctx context.Context, id int64) (*entities.Assignment, error) {
	sql := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentFields)
	return scanAssignment(r.storage.QueryRow(ctx, sql, id))
}

// MarkPublished записывает ссылку на опубликованное сообщение. Ровно один раз:
// повторная попытка возвращает ErrAlreadyPublished.
func (r *AssignmentRepository) MarkPublished(ctx context.Context, id int64, chatID int64, messageID int64) error {
	const sql = `
	UPDATE assignments
	SET published_chat_id = $1, published_message_id = $2
	WHERE id = $3 AND published_chat_id IS NULL`

	return WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, chatID, messageID, id)
		if err != nil {
			return fmt.Errorf("ошибка отметки публикации задания %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrAlreadyPublished
		}
		return nil
	})
}

func (r *AssignmentRepository) DisableAssignment(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "UPDATE assignments SET is_active = FALSE WHERE id = $1 AND is_active = TRUE", id)
		if err != nil {
			return fmt.Errorf("ошибка закрытия задания %d: %w", id, err)
		}
		ok = tag.RowsAffected() > 0
		return nil
	})
	return ok, err
}

func (r *AssignmentRepository) DeleteAssignment(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM assignments WHERE id = $1 AND is_active = TRUE", id)
		if err != nil {
			return fmt.Errorf("ошибка удаления задания %d: %w", id, err)
		}
		ok = tag.RowsAffected() > 0
		return nil
	})
	return ok, err
}

func (r *AssignmentRepository) MyAssignments(ctx context.Context, authorID int64) ([]entities.Assignment, error) {
	sql, args, err := psql.
		Select(assignmentFields).
		From("assignments").
		Where(sq.Eq{"author_id": authorID}).
		OrderBy("created_at DESC").
		Limit(myAssignmentsLimit).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryAssignments(ctx, sql, args...)
}

func (r *AssignmentRepository) ListActiveAssignments(ctx context.Context) ([]entities.Assignment, error) {
	sql, args, err := psql.
		Select(assignmentFields).
		From("assignments").
		Where(sq.Eq{"is_active": true}).
		OrderBy("created_at DESC").
		Limit(freeAssignmentsLimit).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryAssignments(ctx, sql, args...)
}

func (r *AssignmentRepository) queryAssignments(ctx context.Context, sql string, args ...interface{}) ([]entities.Assignment, error) {
	rows, err := r.storage.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заданий: %w", err)
	}
	defer rows.Close()

	var out []entities.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
