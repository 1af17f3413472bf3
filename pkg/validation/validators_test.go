package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskbot/pkg/errors"
)

func TestParseDeadline_EquivalentFormats(t *testing.T) {
	// Один и тот же момент в трёх записях.
	want := time.Date(2025, 12, 31, 18, 30, 0, 0, time.Local)
	for _, input := range []string{
		"2025-12-31 18:30",
		"31.12.2025 18:30",
		"31/12/2025 18:30",
	} {
		got, err := ParseDeadline(input)
		require.NoError(t, err, "вход %q", input)
		assert.True(t, want.Equal(got), "вход %q: ожидалось %v, получено %v", input, want, got)
	}
}

func TestParseDeadline_DateOnly(t *testing.T) {
	want := time.Date(2025, 10, 31, 0, 0, 0, 0, time.Local)
	for _, input := range []string{"2025-10-31", "31.10.2025", "31/10/2025", "  31.10.2025  "} {
		got, err := ParseDeadline(input)
		require.NoError(t, err, "вход %q", input)
		assert.True(t, want.Equal(got), "вход %q", input)
	}
}

func TestParseDeadline_Invalid(t *testing.T) {
	for _, input := range []string{"2025-13-99", "завтра", "31-12-2025", "18:30", ""} {
		_, err := ParseDeadline(input)
		require.Error(t, err, "вход %q должен отклоняться", input)

		var invalid *apperrors.InvalidInputError
		assert.True(t, errors.As(err, &invalid), "ожидался InvalidInputError для %q", input)
	}
}

func TestParseVolume(t *testing.T) {
	d, err := ParseVolume("12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.5", d.String())

	// Запятая как десятичный разделитель.
	d, err = ParseVolume(" 7,25 ")
	require.NoError(t, err)
	assert.Equal(t, "7.25", d.String())

	// Положительность здесь не проверяется.
	d, err = ParseVolume("-3")
	require.NoError(t, err)
	assert.Equal(t, "-3", d.String())

	_, err = ParseVolume("abc")
	require.Error(t, err)
}

func TestParsePositiveInt(t *testing.T) {
	n, err := ParsePositiveInt(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	for _, input := range []string{"0", "-1", "1.5", "1,5", "abc", ""} {
		_, err := ParsePositiveInt(input)
		require.Error(t, err, "вход %q должен отклоняться", input)
	}
}
