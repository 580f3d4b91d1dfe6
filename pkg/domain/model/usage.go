package model

// TokenUsage records token consumption of a single analysis request
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Normalized returns a copy with Total computed as Prompt+Completion when it
// was not supplied.
func (u TokenUsage) Normalized() TokenUsage {
	if u.Total == 0 {
		u.Total = u.Prompt + u.Completion
	}
	return u
}

// IsZero reports whether no tokens were recorded
func (u TokenUsage) IsZero() bool {
	return u.Prompt == 0 && u.Completion == 0 && u.Total == 0
}
