// Файл: internal/services/export.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"taskbot/internal/entities"
	"taskbot/internal/repositories"
)

type documentSender interface {
	SendDocument(ctx context.Context, chatID int64, filename string, content []byte, caption string) error
}

// ExportService — админская выгрузка заданий и задач в XLSX.
type ExportService struct {
	sender               documentSender
	assignmentRepository repositories.AssignmentRepositoryInterface
	ledger               *VolumeLedgerService
	storage              exportClaimLister
	logger               *zap.Logger
}

type exportClaimLister interface {
	OpenClaimsByAssignment(ctx context.Context, assignmentID int64) ([]entities.Claim, error)
}

func NewExportService(
	sender documentSender,
	assignmentRepository repositories.AssignmentRepositoryInterface,
	claims exportClaimLister,
	ledger *VolumeLedgerService,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		sender:               sender,
		assignmentRepository: assignmentRepository,
		storage:              claims,
		ledger:               ledger,
		logger:               logger,
	}
}

// BuildWorkbook собирает книгу: лист заданий и лист задач по активным заданиям.
func (s *ExportService) BuildWorkbook(ctx context.Context) ([]byte, error) {
	assignments, err := s.assignmentRepository.ListActiveAssignments(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const assignmentsSheet = "assignments"
	if err := f.SetSheetName("Sheet1", assignmentsSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"ID", "Автор", "Вид работ", "Срок", "Проект", "Заказчик", "Объём", "Свободно", "Опубликовано"}
	if err := f.SetSheetRow(assignmentsSheet, "A1", &header); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("claims"); err != nil {
		return nil, err
	}
	claimHeader := []interface{}{"ID", "Задание", "Исполнитель", "Объём", "Взято"}
	if err := f.SetSheetRow("claims", "A1", &claimHeader); err != nil {
		return nil, err
	}

	claimRow := 2
	for i, a := range assignments {
		free, err := s.ledger.FreeVolume(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			a.ID, a.AuthorID, a.WorkType,
			a.DeadlineAt.Format("2006-01-02 15:04"),
			orDash(a.Project), orDash(a.Customer),
			a.TotalVolume.String(), free.String(),
			a.IsPublished(),
		}
		if err := f.SetSheetRow(assignmentsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}

		claims, err := s.storage.OpenClaimsByAssignment(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range claims {
			row := []interface{}{
				c.ID, c.AssignmentID, c.ExecutorID, c.Volume.String(),
				c.CreatedAt.Format("2006-01-02 15:04"),
			}
			if err := f.SetSheetRow("claims", fmt.Sprintf("A%d", claimRow), &row); err != nil {
				return nil, err
			}
			claimRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export отправляет книгу админу документом.
func (s *ExportService) Export(ctx context.Context, chatID int64) error {
	content, err := s.BuildWorkbook(ctx)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("taskbot_export_%s.xlsx", time.Now().Format("2006-01-02"))
	if err := s.sender.SendDocument(ctx, chatID, filename, content, "Выгрузка заданий и задач"); err != nil {
		return fmt.Errorf("ошибка отправки выгрузки: %w", err)
	}

	s.logger.Info("выгрузка отправлена", zap.Int64("chat_id", chatID), zap.String("file", filename))
	return nil
}
