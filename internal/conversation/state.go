// Package conversation holds the transcript and chat-session identity of one
// conversation. The turn orchestrator is the only writer; everyone else reads
// copies.
package conversation

import "sync"

// State is the append-only transcript plus the write-once session id.
// Reads may run concurrently with the single writer.
type State struct {
	mu        sync.RWMutex
	messages  []Message
	sessionID string
}

// New returns an empty conversation with no session.
func New() *State {
	return &State{}
}

// Restore rebuilds a conversation from persisted data.
func Restore(sessionID string, messages []Message) *State {
	s := &State{sessionID: sessionID}
	s.messages = append(s.messages, messages...)
	return s
}

// AppendMessage adds msg at the end of the transcript.
func (s *State) AppendMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// SetSessionIfUnset stores id only while no session is set. Empty ids are
// ignored. Reports whether id was stored.
func (s *State) SetSessionIfUnset(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID != "" {
		return false
	}
	s.sessionID = id
	return true
}

// SessionID returns the session id, or "" before the first assigned reply.
func (s *State) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Transcript returns a copy of all messages in insertion order.
func (s *State) Transcript() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
