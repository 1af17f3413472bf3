// Файл: internal/controllers/telegram/poller.go
package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	pollTimeoutSec = 50
	pollRetryDelay = 5 * time.Second
)

// RunPolling — цикл getUpdates. Апдейты обрабатываются последовательно:
// это сохраняет порядок ходов внутри диалога одного пользователя; гонки
// заявок между пользователями разрешает БД, а не порядок обработки.
func (c *Controller) RunPolling(ctx context.Context) error {
	if err := c.tg.DeleteWebhook(ctx, true); err != nil {
		return err
	}

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := c.tg.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("ошибка getUpdates, повтор через паузу", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			offset = upd.UpdateID + 1
			c.HandleUpdate(ctx, upd)
		}
	}
}
