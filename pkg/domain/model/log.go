package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
)

// logFilenamePattern matches daily log filenames such as
// "2025-09-22.mon.log.md": a calendar date plus a three-letter weekday tag.
var logFilenamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.[a-z]{3}\.log\.md$`)

// DiaryLog is a daily diary log file. The date is derived from the filename
// and the content is immutable once read for a given run.
type DiaryLog struct {
	Path string
	Date time.Time
}

// ParseLogPath derives a DiaryLog from a log file path. The filename must
// carry a valid calendar date.
func ParseLogPath(path string) (*DiaryLog, error) {
	name := filepath.Base(path)
	m := logFilenamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, goerr.New("log filename must match YYYY-MM-DD.<ddd>.log.md", goerr.V("name", name))
	}

	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return nil, goerr.Wrap(err, "invalid calendar date in log filename", goerr.V("name", name))
	}

	return &DiaryLog{Path: path, Date: date}, nil
}

// WeekID returns the ISO week the log belongs to
func (l *DiaryLog) WeekID() types.WeekID {
	return types.WeekOf(l.Date)
}

// ArtifactTag returns the canonical per-day artifact directory name,
// "<ISO year>-W<week>-<day of month>".
func (l *DiaryLog) ArtifactTag() string {
	year, week := l.Date.ISOWeek()
	return fmt.Sprintf("%04d-W%02d-%02d", year, week, l.Date.Day())
}

// Stem returns the filename without its extension chain, e.g.
// "2025-09-22.mon" for "2025-09-22.mon.log.md".
func (l *DiaryLog) Stem() string {
	name := filepath.Base(l.Path)
	if len(name) > len(".log.md") {
		return name[:len(name)-len(".log.md")]
	}
	return name
}
