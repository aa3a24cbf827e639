package chat

import (
	"encoding/json"
	"time"
)

// Request is the body of POST /agent/chat.
type Request struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Response is one assistant turn. Timestamp is kept as sent by the backend;
// parsing it is the caller's decision.
type Response struct {
	SessionID string
	Message   string
	Intent    string
	Action    string
	Payload   *Payload
	Timestamp string
}

// Payload is the structured part of a reply. A nil *Payload means the
// backend sent no data at all.
type Payload struct {
	Domains       []string
	DomainReasons []DomainReason
	Keywords      []string
}

// DomainReason is the generation-time rationale for one candidate.
type DomainReason struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// HasDomains reports whether the reply carries candidates to verify.
func (p *Payload) HasDomains() bool {
	return p != nil && len(p.Domains) > 0
}

// Session is the backend's view of a chat session.
type Session struct {
	ID        string           `json:"id"`
	Messages  []SessionMessage `json:"messages"`
	Context   map[string]any   `json:"context"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// SessionMessage is one entry of a backend session transcript.
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type wireResponse struct {
	SessionID string          `json:"session_id"`
	Message   string          `json:"message"`
	Intent    string          `json:"intent"`
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type wirePayload struct {
	Domains       []string       `json:"domains"`
	DomainReasons []DomainReason `json:"domainReasons"`
	Keywords      []string       `json:"keywords"`
}
