// Файл: pkg/validation/validators.go
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "taskbot/pkg/errors"
)

// Форматы срока: дата или дата-время; «31.12.2025 18:30», «2025-12-31 18:30»
// и «31/12/2025 18:30» обозначают один и тот же момент.
var deadlineFormats = []string{
	"2006-01-02 15:04",
	"02.01.2006 15:04",
	"02/01/2006 15:04",
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
}

var positiveIntRe = regexp.MustCompile(`^\d+$`)

// ParseDeadline разбирает срок в одном из допустимых форматов.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range deadlineFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewInvalidInputError("не удалось разобрать дату %q", s)
}

// ParseVolume разбирает объём: десятичное число, запятая допустима как
// разделитель. Положительность проверяет вызывающий.
func ParseVolume(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.NewInvalidInputError("не удалось разобрать число %q", s)
	}
	return d, nil
}

// ParsePositiveInt — целое строго больше нуля (объём заявки).
func ParsePositiveInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !positiveIntRe.MatchString(s) {
		return 0, apperrors.NewInvalidInputError("ожидается целое число, получено %q", s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.NewInvalidInputError("ожидается целое число от 1, получено %q", s)
	}
	return n, nil
}
