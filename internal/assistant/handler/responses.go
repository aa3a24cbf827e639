package handler

import (
	"time"

	"domainagent/internal/assistant"
	"domainagent/internal/chat"
	"domainagent/internal/conversation"
	"domainagent/internal/turn"
	"domainagent/internal/verification"
)

type MessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type ResultResponse struct {
	Domain      string   `json:"domain"`
	Available   bool     `json:"available"`
	Score       *float64 `json:"score,omitempty"`
	Signatures  []string `json:"signatures,omitempty"`
	Reason      string   `json:"reason"`
	Price       string   `json:"price,omitempty"`
	Placeholder bool     `json:"placeholder"`
}

type ConversationResponse struct {
	ConversationID string            `json:"conversation_id"`
	SessionID      string            `json:"session_id,omitempty"`
	State          string            `json:"state"`
	Messages       []MessageResponse `json:"messages"`
	Results        []ResultResponse  `json:"results"`
}

type TurnResponse struct {
	ConversationResponse
	Outcome string `json:"outcome"`
	// ResultsUpdated is false when the turn left the previous results in place.
	ResultsUpdated bool `json:"results_updated"`
}

type SuggestionResponse struct {
	Domain       string  `json:"domain"`
	Score        float64 `json:"score"`
	Reason       string  `json:"reason,omitempty"`
	Length       int     `json:"length"`
	Memorability float64 `json:"memorability"`
}

type SuggestionsResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
}

type SessionMessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

type SessionResponse struct {
	SessionID string                   `json:"session_id"`
	Messages  []SessionMessageResponse `json:"messages"`
	Context   map[string]any           `json:"context,omitempty"`
	CreatedAt string                   `json:"created_at,omitempty"`
	UpdatedAt string                   `json:"updated_at,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toMessages(in []conversation.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(in))
	for _, m := range in {
		out = append(out, MessageResponse{
			Role:      string(m.Role),
			Content:   m.Content,
			Timestamp: formatTime(m.Timestamp),
		})
	}
	return out
}

func toResults(in []turn.Result) []ResultResponse {
	out := make([]ResultResponse, 0, len(in))
	for _, r := range in {
		out = append(out, ResultResponse{
			Domain:      r.Domain,
			Available:   r.Available,
			Score:       r.Score,
			Signatures:  r.Signatures,
			Reason:      r.Reason,
			Price:       r.Price,
			Placeholder: r.Placeholder,
		})
	}
	return out
}

func FromConversation(v *assistant.ConversationView) ConversationResponse {
	return ConversationResponse{
		ConversationID: v.ConversationID,
		SessionID:      v.SessionID,
		State:          string(v.State),
		Messages:       toMessages(v.Messages),
		Results:        toResults(v.Results),
	}
}

func FromTurn(v *assistant.TurnView) TurnResponse {
	return TurnResponse{
		ConversationResponse: FromConversation(&v.ConversationView),
		Outcome:              string(v.Outcome),
		ResultsUpdated:       v.Emitted,
	}
}

func FromSuggestions(in []verification.Suggestion) SuggestionsResponse {
	out := make([]SuggestionResponse, 0, len(in))
	for _, s := range in {
		out = append(out, SuggestionResponse{
			Domain:       s.Domain,
			Score:        s.Score,
			Reason:       s.Reason,
			Length:       s.Length,
			Memorability: s.Memorability,
		})
	}
	return SuggestionsResponse{Suggestions: out}
}

func FromSession(s *chat.Session) SessionResponse {
	msgs := make([]SessionMessageResponse, 0, len(s.Messages))
	for _, m := range s.Messages {
		msgs = append(msgs, SessionMessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: formatTime(m.Timestamp),
		})
	}
	return SessionResponse{
		SessionID: s.ID,
		Messages:  msgs,
		Context:   s.Context,
		CreatedAt: formatTime(s.CreatedAt),
		UpdatedAt: formatTime(s.UpdatedAt),
	}
}
