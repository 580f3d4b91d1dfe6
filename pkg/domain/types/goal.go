package types

import (
	"regexp"
	"sort"

	"github.com/m-mizutani/goerr/v2"
)

// GoalID represents a goal reference identifier such as "G-2025-W39-01":
// 4-digit year, 2-digit ISO week and 2-digit sequence.
type GoalID string

var (
	goalIDPattern  = regexp.MustCompile(`^G-\d{4}-W\d{2}-\d{2}$`)
	goalRefPattern = regexp.MustCompile(`G-\d{4}-W\d{2}-\d{2}`)
)

// Validate checks if the GoalID matches the reference format
func (g GoalID) Validate() error {
	if g == "" {
		return goerr.New("goal ID cannot be empty")
	}
	if !goalIDPattern.MatchString(string(g)) {
		return goerr.New("goal ID must match G-YYYY-Wnn-nn", goerr.V("id", g))
	}
	return nil
}

// String returns the string representation of GoalID
func (g GoalID) String() string {
	return string(g)
}

// ExtractGoalIDs scans text for goal references. Duplicates collapse and the
// result is sorted lexicographically.
func ExtractGoalIDs(text string) []GoalID {
	seen := make(map[GoalID]struct{})
	for _, m := range goalRefPattern.FindAllString(text, -1) {
		seen[GoalID(m)] = struct{}{}
	}

	ids := make([]GoalID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GoalIDStrings converts a GoalID slice to plain strings
func GoalIDStrings(ids []GoalID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
