// Файл: seeders/customers_seeder.go
package seeders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskbot/internal/repositories"
)

// Начальный справочник заказчиков. Вставляется только в пустую таблицу;
// дубликаты по имени игнорируются.
var customersSeed = []string{
	"Администрация Главы Чувашии",
	"Глава Чувашии",
	"Госпаблики",
	"Госпаблики детских садов",
	"Госпаблики ОМСУ",
	"Госпаблики школ",
	"Кабмин Чувашии",
	"Медиацентр Чувашии",
	"Минздрав Чувашии",
	"Минкультуры Чувашии",
	"Минобразования Чувашии",
	"Минсельхоз Чувашии",
	"Минспорт Чувашии",
	"Минстрой Чувашии",
	"Минтруд Чувашии",
	"Минцифры Чувашии",
	"Минэкономразвития Чувашии",
	"Молодежная политика",
	"Фонд защитников отечества",
	"ЦУР Чувашии",
	"Военкомат Чувашии",
	"Госветслужба",
	"Госпаблик Чебоксары",
	"Госпаблики спортивных школ",
	"Минтранс Чувашии",
}

// SeedCustomers заполняет справочник заказчиков, если он пуст.
func SeedCustomers(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	return repositories.WithTx(ctx, pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, name := range customersSeed {
			if _, err := tx.Exec(ctx,
				"INSERT INTO customers (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name); err != nil {
				return err
			}
		}
		logger.Info("справочник заказчиков заполнен", zap.Int("count", len(customersSeed)))
		return nil
	})
}
