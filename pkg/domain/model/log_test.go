package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
)

func TestParseLogPath(t *testing.T) {
	t.Run("parses a valid log path", func(t *testing.T) {
		log, err := model.ParseLogPath("daily-logs/2025-09-22.mon.log.md")
		gt.NoError(t, err).Required()
		gt.String(t, log.Path).Equal("daily-logs/2025-09-22.mon.log.md")
		gt.Number(t, log.Date.Year()).Equal(2025)
		gt.Number(t, int(log.Date.Month())).Equal(9)
		gt.Number(t, log.Date.Day()).Equal(22)
	})

	t.Run("rejects filenames without the weekday tag", func(t *testing.T) {
		_, err := model.ParseLogPath("daily-logs/2025-09-22.log.md")
		gt.Error(t, err)
	})

	t.Run("rejects an uppercase weekday tag", func(t *testing.T) {
		_, err := model.ParseLogPath("daily-logs/2025-09-22.MON.log.md")
		gt.Error(t, err)
	})

	t.Run("rejects an impossible calendar date", func(t *testing.T) {
		_, err := model.ParseLogPath("daily-logs/2025-02-30.sun.log.md")
		gt.Error(t, err)
	})
}

func TestDiaryLogDerivations(t *testing.T) {
	log, err := model.ParseLogPath("daily-logs/2025-09-22.mon.log.md")
	gt.NoError(t, err).Required()

	gt.Value(t, log.WeekID()).Equal(types.WeekID("2025-W39"))
	gt.String(t, log.ArtifactTag()).Equal("2025-W39-22")
	gt.String(t, log.Stem()).Equal("2025-09-22.mon")
}
