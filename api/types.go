// Package api defines the HTTP surface: request/response DTOs and
// handlers for the sync, SSE, and WebSocket research endpoints.
package api

// ResearchRequest starts a research run.
type ResearchRequest struct {
	Topic         string `json:"topic"`
	Clarification string `json:"clarification,omitempty"`
	// DebateRounds overrides the configured default when set. Zero
	// skips the debate entirely.
	DebateRounds *int `json:"debate_rounds,omitempty"`
}

// FollowUpRequest asks a further question against a prior brief.
type FollowUpRequest struct {
	Topic        string `json:"topic"`
	Question     string `json:"question"`
	PriorBrief   string `json:"prior_brief"`
	DebateRounds *int   `json:"debate_rounds,omitempty"`
}

// ClarifyRequest asks for a clarification form for a topic.
type ClarifyRequest struct {
	Topic string `json:"topic"`
}
