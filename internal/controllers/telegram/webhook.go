// Файл: internal/controllers/telegram/webhook.go
package telegram

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskbot/pkg/telegram"
)

// HandleTelegramWebhook — приём апдейтов в режиме webhook. Telegram повторяет
// доставку при не-200, поэтому ответ всегда 200, даже на мусорный payload.
func (c *Controller) HandleTelegramWebhook(ec echo.Context) error {
	var upd telegram.Update
	if err := ec.Bind(&upd); err != nil {
		return ec.NoContent(http.StatusOK)
	}

	c.HandleUpdate(ec.Request().Context(), upd)
	return ec.NoContent(http.StatusOK)
}
