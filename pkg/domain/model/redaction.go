package model

// RedactionReport describes what the redaction pass removed from a diary log.
// IsRedacted is true iff the sanitized text differs from the input.
// Removed values are PII and must never appear in log output, hence the masq
// tags.
type RedactionReport struct {
	IsRedacted    bool     `json:"is_redacted"`
	RemovedEmails []string `json:"removed_emails" masq:"secret"`
	RemovedNames  []string `json:"removed_names" masq:"secret"`
	MissingGoals  []string `json:"missing_goals,omitempty"`
}
