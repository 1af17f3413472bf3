// Файл: internal/controllers/telegram/keyboards.go
package telegram

import (
	"fmt"

	"taskbot/internal/entities"
	"taskbot/pkg/telegram"
)

// Тексты кнопок reply-клавиатур.
const (
	btnCreateAssignment = "📝 Выдать задание"
	btnMyAssignments    = "📤 Мои выданные задания"
	btnMyClaims         = "📋 Мои задачи"
	btnDeleteClaim      = "🗑 Удалить мою задачу"

	btnAdminDeleteAny = "🚮 Удалить любое задание"
	btnAdminExport    = "📦 Выгрузить БД"

	btnCancelCreation = "❌ Отмена задания"
	btnCancelClaim    = "❌ Отменить взятие"
)

// Ярлыки видов работ для инлайн-кнопок; неизвестные (добавленные через
// конфигурацию) показываются как есть.
var workTypeLabels = map[string]string{
	"design":   "🎨 Дизайн",
	"montage":  "🔧 Монтаж",
	"shooting": "📹 Съёмка",
}

func userMenu() [][]telegram.ReplyKeyboardButton {
	return [][]telegram.ReplyKeyboardButton{
		{{Text: btnCreateAssignment}},
		{{Text: btnMyAssignments}, {Text: btnMyClaims}},
		{{Text: btnDeleteClaim}},
	}
}

func adminMenu() [][]telegram.ReplyKeyboardButton {
	return append(userMenu(),
		[]telegram.ReplyKeyboardButton{{Text: btnAdminDeleteAny}, {Text: btnAdminExport}},
	)
}

// Во время диалога главное меню скрыто, доступна только отмена.
func creationMenu() [][]telegram.ReplyKeyboardButton {
	return [][]telegram.ReplyKeyboardButton{{{Text: btnCancelCreation}}}
}

func claimMenu() [][]telegram.ReplyKeyboardButton {
	return [][]telegram.ReplyKeyboardButton{{{Text: btnCancelClaim}}}
}

func workTypeKeyboard(workTypes []string) [][]telegram.InlineKeyboardButton {
	var row []telegram.InlineKeyboardButton
	for _, wt := range workTypes {
		label := workTypeLabels[wt]
		if label == "" {
			label = wt
		}
		row = append(row, telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: "worktype:" + wt,
		})
	}
	return [][]telegram.InlineKeyboardButton{row}
}

// customersKeyboard — по две кнопки в ряд, как в меню выбора заказчика.
func customersKeyboard(customers []entities.Customer) [][]telegram.InlineKeyboardButton {
	var rows [][]telegram.InlineKeyboardButton
	var row []telegram.InlineKeyboardButton
	for _, c := range customers {
		row = append(row, telegram.InlineKeyboardButton{
			Text:         c.Name,
			CallbackData: fmt.Sprintf("customer:%d", c.ID),
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}
