package assistant

import (
	"time"

	"domainagent/internal/conversation"
	"domainagent/internal/turn"
)

// DefaultGreeting opens every new conversation unless configured otherwise.
const DefaultGreeting = "Hello! I'm Domain Agent. Tell me about your project and I'll help you find the perfect domain."

// ConversationView is a read-only copy of a conversation.
type ConversationView struct {
	ConversationID string
	SessionID      string
	State          turn.State
	Messages       []conversation.Message
	Results        []turn.Result
	UpdatedAt      time.Time
}

// TurnView reports one turn together with the conversation after it.
type TurnView struct {
	ConversationView
	Outcome turn.OutcomeKind
	// Emitted is false when the turn left the previous results in place.
	Emitted bool
}
