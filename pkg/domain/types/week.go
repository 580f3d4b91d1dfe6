package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// WeekID represents an ISO-8601 week identifier in the canonical form
// "YYYY-Wnn", e.g. "2025-W39".
type WeekID string

var weekIDPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

// Validate checks if the WeekID is in canonical form
func (w WeekID) Validate() error {
	if w == "" {
		return goerr.New("week ID cannot be empty")
	}
	if !weekIDPattern.MatchString(string(w)) {
		return goerr.New("week ID must match YYYY-Wnn", goerr.V("id", w))
	}
	return nil
}

// String returns the string representation of WeekID
func (w WeekID) String() string {
	return string(w)
}

// Year returns the ISO year component
func (w WeekID) Year() int {
	year, _ := strconv.Atoi(string(w)[:4])
	return year
}

// Week returns the ISO week number component
func (w WeekID) Week() int {
	week, _ := strconv.Atoi(string(w)[6:])
	return week
}

// Slug returns the filename slug for the week, e.g. "week-39"
func (w WeekID) Slug() string {
	parts := strings.SplitN(string(w), "-", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[1], "W") {
		return "week-" + strings.ToLower(parts[1][1:])
	}
	return "week-" + strings.ToLower(string(w))
}

// Contains reports whether t falls in this ISO week
func (w WeekID) Contains(t time.Time) bool {
	return WeekOf(t) == w
}

// WeekOf returns the WeekID of the ISO week containing t
func WeekOf(t time.Time) WeekID {
	year, week := t.ISOWeek()
	return WeekID(fmt.Sprintf("%04d-W%02d", year, week))
}

// ParseWeekID parses and validates a week identifier string
func ParseWeekID(s string) (WeekID, error) {
	w := WeekID(s)
	if err := w.Validate(); err != nil {
		return "", err
	}
	return w, nil
}

// DefaultWeekID returns the week to report on for the given day. On Sunday
// the week containing the previous Saturday is targeted.
func DefaultWeekID(today time.Time) WeekID {
	if today.Weekday() == time.Sunday {
		return WeekOf(today.AddDate(0, 0, -1))
	}
	return WeekOf(today)
}
