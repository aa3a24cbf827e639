// Package store persists conversation snapshots so a conversation outlives
// the process that served its last turn.
package store

import (
	"time"

	"domainagent/internal/conversation"
	"domainagent/internal/turn"
)

// Snapshot is everything needed to resume a conversation: the transcript,
// the chat session and the last emitted result list.
type Snapshot struct {
	ConversationID string                 `json:"conversation_id"`
	SessionID      string                 `json:"session_id,omitempty"`
	Messages       []conversation.Message `json:"messages"`
	Results        []turn.Result          `json:"results"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DefaultTTL bounds how long an idle conversation is kept.
const DefaultTTL = 24 * time.Hour
