package redact

import (
	"regexp"
	"sort"

	"github.com/secmon-lab/tsuzuri/pkg/domain/model"
)

// Placeholder tokens substituted for removed values
const (
	EmailPlaceholder = "[REDACTED_EMAIL]"
	NamePlaceholder  = "[REDACTED_NAME]"
)

var (
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.[A-Za-z]{2,}`)
	namePattern  = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// nameWhitelist holds structural capitalized words that are never name
// candidates.
var nameWhitelist = map[string]struct{}{
	"I":      {},
	"Today":  {},
	"Call":   {},
	"Daily":  {},
	"Weekly": {},
	"CI":     {},
	"PR":     {},
}

// Apply removes emails and candidate proper names from text and returns the
// sanitized text together with the report of what was removed. The report is
// derived from the same detection pass that drives the substitution, so the
// two cannot disagree.
//
// The email pass runs before the name pass: name detection tokenizes on
// capitalization and must not pick up already-substituted placeholders.
func Apply(text string) (string, *model.RedactionReport) {
	emails := matchSet(emailPattern.FindAllString(text, -1))
	sanitized := emailPattern.ReplaceAllString(text, EmailPlaceholder)

	candidates := make(map[string]struct{})
	for _, word := range namePattern.FindAllString(sanitized, -1) {
		if _, ok := nameWhitelist[word]; ok {
			continue
		}
		candidates[word] = struct{}{}
	}

	if len(candidates) > 0 {
		sanitized = namePattern.ReplaceAllStringFunc(sanitized, func(word string) string {
			if _, ok := candidates[word]; ok {
				return NamePlaceholder
			}
			return word
		})
	}

	report := &model.RedactionReport{
		IsRedacted:    sanitized != text,
		RemovedEmails: emails,
		RemovedNames:  sortedKeys(candidates),
	}
	return sanitized, report
}

// Sanitize returns the sanitized text only. Empty input yields empty output.
func Sanitize(text string) string {
	sanitized, _ := Apply(text)
	return sanitized
}

func matchSet(matches []string) []string {
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
