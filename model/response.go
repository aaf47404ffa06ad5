package model

// Response is the terminal outcome of one logical turn, after any tool
// calling has run to completion. Token counts are summed across every
// provider call the turn made.
type Response struct {
	Text         string `json:"text"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`

	// ContinuationID is set only when the provider tracks conversation
	// state server-side; callers must not assume its presence.
	ContinuationID string `json:"continuation_id,omitempty"`
}
