package types_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
)

func TestWeekIDValidate(t *testing.T) {
	t.Run("accepts canonical week ID", func(t *testing.T) {
		gt.NoError(t, types.WeekID("2025-W39").Validate())
	})

	t.Run("rejects malformed week IDs", func(t *testing.T) {
		for _, id := range []string{"", "2025-39", "2025-w39", "25-W39", "2025-W9"} {
			gt.Error(t, types.WeekID(id).Validate())
		}
	})
}

func TestWeekIDComponents(t *testing.T) {
	w := types.WeekID("2025-W39")
	gt.Number(t, w.Year()).Equal(2025)
	gt.Number(t, w.Week()).Equal(39)
	gt.String(t, w.Slug()).Equal("week-39")
}

func TestWeekOf(t *testing.T) {
	t.Run("maps a weekday to its ISO week", func(t *testing.T) {
		// Monday 2025-09-22 is in ISO week 39
		d := time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC)
		gt.Value(t, types.WeekOf(d)).Equal(types.WeekID("2025-W39"))
	})

	t.Run("handles year boundary weeks", func(t *testing.T) {
		// 2024-12-30 falls in ISO week 1 of 2025
		d := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
		gt.Value(t, types.WeekOf(d)).Equal(types.WeekID("2025-W01"))
	})
}

func TestWeekIDContains(t *testing.T) {
	w := types.WeekID("2025-W39")
	gt.Bool(t, w.Contains(time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC))).True()
	gt.Bool(t, w.Contains(time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC))).True()
	gt.Bool(t, w.Contains(time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC))).False()
}

func TestParseWeekID(t *testing.T) {
	t.Run("parses a valid identifier", func(t *testing.T) {
		w, err := types.ParseWeekID("2025-W05")
		gt.NoError(t, err).Required()
		gt.Value(t, w).Equal(types.WeekID("2025-W05"))
	})

	t.Run("rejects an invalid identifier", func(t *testing.T) {
		_, err := types.ParseWeekID("2025W05")
		gt.Error(t, err)
	})
}

func TestDefaultWeekID(t *testing.T) {
	t.Run("uses the current week on weekdays", func(t *testing.T) {
		// Wednesday 2025-09-24
		d := time.Date(2025, 9, 24, 12, 0, 0, 0, time.UTC)
		gt.Value(t, types.DefaultWeekID(d)).Equal(types.WeekID("2025-W39"))
	})

	t.Run("targets the previous day's week on Sunday", func(t *testing.T) {
		// Sunday 2025-09-28 still belongs to 2025-W39, as does Saturday
		d := time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC)
		gt.Value(t, types.DefaultWeekID(d)).Equal(types.WeekID("2025-W39"))
	})
}
