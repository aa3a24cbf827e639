// Package assistant hosts many conversations at once. It owns one turn
// orchestrator per live conversation, persists a snapshot after every turn
// and rehydrates conversations the process has not seen yet.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"domainagent/internal/chat"
	"domainagent/internal/conversation"
	"domainagent/internal/conversation/store"
	"domainagent/internal/turn"
	"domainagent/internal/turn/metrics"
	"domainagent/internal/verification"
	dErrors "domainagent/pkg/domain-errors"
	"domainagent/pkg/platform/sentinel"
	"domainagent/pkg/requestcontext"
)

// SnapshotStore persists conversation snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap *store.Snapshot) error
	Get(ctx context.Context, conversationID string) (*store.Snapshot, error)
	Delete(ctx context.Context, conversationID string) error
}

// ChatClient talks to the chat backend.
type ChatClient interface {
	turn.ChatClient
	GetSession(ctx context.Context, sessionID string) (*chat.Session, error)
}

// Suggester proposes domains for keywords.
type Suggester interface {
	SuggestDomains(ctx context.Context, req verification.SuggestRequest) ([]verification.Suggestion, error)
}

type liveConversation struct {
	orch     *turn.Orchestrator
	lastUsed time.Time // guarded by Service.mu

	// mu orders snapshot writes against Delete. Once deleted is set no
	// further snapshot is written for this conversation.
	mu      sync.Mutex
	deleted bool
}

type Service struct {
	chat        ChatClient
	verifier    turn.Verifier
	suggester   Suggester
	store       SnapshotStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	mode        turn.MatchMode
	placeholder turn.PlaceholderPolicy
	greeting    string
	now         func() time.Time
	newID       func() string

	mu   sync.Mutex
	live map[string]*liveConversation
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMatchMode(mode turn.MatchMode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

func WithPlaceholderPolicy(policy turn.PlaceholderPolicy) Option {
	return func(s *Service) {
		s.placeholder = policy
	}
}

// WithGreeting sets the assistant message that opens new conversations.
// An empty greeting disables it.
func WithGreeting(greeting string) Option {
	return func(s *Service) {
		s.greeting = greeting
	}
}

func WithSuggester(suggester Suggester) Option {
	return func(s *Service) {
		s.suggester = suggester
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func New(chatClient ChatClient, verifier turn.Verifier, snapshots SnapshotStore, opts ...Option) (*Service, error) {
	if chatClient == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}

	svc := &Service{
		chat:     chatClient,
		verifier: verifier,
		store:    snapshots,
		logger:   slog.Default(),
		mode:     turn.MatchExact,
		greeting: DefaultGreeting,
		now:      time.Now,
		newID:    uuid.NewString,
		live:     make(map[string]*liveConversation),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Start opens a new conversation, seeded with the greeting when one is set.
func (s *Service) Start(ctx context.Context) (*ConversationView, error) {
	id := s.newID()
	conv := conversation.New()
	if s.greeting != "" {
		conv.AppendMessage(conversation.NewAssistantMessage(s.greeting, s.clock(ctx)))
	}

	orch, err := s.newOrchestrator(conv, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start conversation")
	}

	lc := &liveConversation{orch: orch, lastUsed: s.clock(ctx)}
	s.mu.Lock()
	s.live[id] = lc
	s.mu.Unlock()

	view := s.view(ctx, id, orch)
	if err := s.save(ctx, lc, view); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save conversation")
	}

	s.logger.InfoContext(ctx, "conversation started",
		"request_id", requestcontext.RequestID(ctx),
		"conversation_id", id,
	)
	return &view, nil
}

// Send runs one turn in conversation id. Chat and verification failures are
// absorbed into the transcript; only a missing conversation, blank text or a
// concurrent turn produce errors.
//
// The turn and its snapshot write are detached from ctx cancellation: once
// started, a turn runs to completion even if the caller goes away. The
// backend client timeouts bound it.
func (s *Service) Send(ctx context.Context, id, text string) (*TurnView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "message is required")
	}
	lc, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(requestcontext.WithConversationID(ctx, id))
	out := lc.orch.Send(ctx, text)
	if out.Kind == turn.OutcomeRejected {
		return nil, dErrors.New(dErrors.CodeConflict, "a turn is already in progress for this conversation")
	}

	view := s.view(ctx, id, lc.orch)
	if err := s.save(ctx, lc, view); err != nil {
		// The turn already happened; the live copy is authoritative.
		s.logger.ErrorContext(ctx, "failed to save conversation snapshot",
			"request_id", requestcontext.RequestID(ctx),
			"conversation_id", id,
			"error", err,
		)
	}

	return &TurnView{ConversationView: view, Outcome: out.Kind, Emitted: out.Emitted}, nil
}

// Get returns the conversation, from memory or from the snapshot store.
func (s *Service) Get(ctx context.Context, id string) (*ConversationView, error) {
	lc, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, id, lc.orch)
	return &view, nil
}

// Delete forgets a conversation in memory and in the store. A turn still in
// flight finishes, but its result is not saved.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	lc, wasLive := s.live[id]
	delete(s.live, id)
	s.mu.Unlock()

	if wasLive {
		lc.mu.Lock()
		defer lc.mu.Unlock()
		lc.deleted = true
	}

	err := s.store.Delete(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		if !wasLive {
			return dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete conversation")
	}

	s.logger.InfoContext(ctx, "conversation deleted",
		"request_id", requestcontext.RequestID(ctx),
		"conversation_id", id,
	)
	return nil
}

// SuggestDomains asks the verification backend for keyword-based ideas.
func (s *Service) SuggestDomains(ctx context.Context, req verification.SuggestRequest) ([]verification.Suggestion, error) {
	if s.suggester == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "domain suggestions are not configured")
	}
	suggestions, err := s.suggester.SuggestDomains(ctx, req)
	if err != nil {
		return nil, backendError(err, "failed to suggest domains")
	}
	return suggestions, nil
}

// Session looks up chat-backend session state.
func (s *Service) Session(ctx context.Context, sessionID string) (*chat.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "session_id is required")
	}
	session, err := s.chat.GetSession(ctx, sessionID)
	if err != nil {
		return nil, backendError(err, "failed to get session")
	}
	return session, nil
}

// DropIdle releases in-memory conversations untouched since before. Their
// snapshots stay in the store and are rehydrated on next use. Conversations
// with a turn in flight are kept.
func (s *Service) DropIdle(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, lc := range s.live {
		if lc.lastUsed.Before(before) && lc.orch.State() == turn.StateIdle {
			delete(s.live, id)
			dropped++
		}
	}
	return dropped
}

// lookup returns the live conversation for id, rehydrating it from the
// snapshot store when this process has not seen it.
func (s *Service) lookup(ctx context.Context, id string) (*liveConversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "conversation id is required")
	}

	s.mu.Lock()
	if lc, ok := s.live[id]; ok {
		lc.lastUsed = s.clock(ctx)
		s.mu.Unlock()
		return lc, nil
	}
	s.mu.Unlock()

	snap, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}

	orch, err := s.newOrchestrator(conversation.Restore(snap.SessionID, snap.Messages), snap.Results)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore conversation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have rehydrated it while we were loading.
	if lc, ok := s.live[id]; ok {
		lc.lastUsed = s.clock(ctx)
		return lc, nil
	}
	lc := &liveConversation{orch: orch, lastUsed: s.clock(ctx)}
	s.live[id] = lc
	s.logger.InfoContext(ctx, "conversation rehydrated",
		"request_id", requestcontext.RequestID(ctx),
		"conversation_id", id,
		"messages", len(snap.Messages),
	)
	return lc, nil
}

func (s *Service) newOrchestrator(conv *conversation.State, results []turn.Result) (*turn.Orchestrator, error) {
	return turn.New(s.chat, s.verifier,
		turn.WithConversation(conv),
		turn.WithResults(results),
		turn.WithLogger(s.logger),
		turn.WithMetrics(s.metrics),
		turn.WithMatchMode(s.mode),
		turn.WithPlaceholderPolicy(s.placeholder),
		turn.WithClock(s.now),
	)
}

func (s *Service) view(ctx context.Context, id string, orch *turn.Orchestrator) ConversationView {
	return ConversationView{
		ConversationID: id,
		SessionID:      orch.SessionID(),
		State:          orch.State(),
		Messages:       orch.Transcript(),
		Results:        orch.Results(),
		UpdatedAt:      s.clock(ctx),
	}
}

// clock prefers the time pinned for the current HTTP request.
func (s *Service) clock(ctx context.Context) time.Time {
	if t, ok := requestcontext.RequestTime(ctx); ok {
		return t
	}
	return s.now()
}

// save writes view unless the conversation was deleted meanwhile.
func (s *Service) save(ctx context.Context, lc *liveConversation, view ConversationView) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if lc.deleted {
		s.logger.InfoContext(ctx, "conversation deleted during turn, snapshot not saved",
			"request_id", requestcontext.RequestID(ctx),
			"conversation_id", view.ConversationID,
		)
		return nil
	}
	return s.persist(ctx, view)
}

func (s *Service) persist(ctx context.Context, view ConversationView) error {
	return s.store.Save(ctx, &store.Snapshot{
		ConversationID: view.ConversationID,
		SessionID:      view.SessionID,
		Messages:       view.Messages,
		Results:        view.Results,
		UpdatedAt:      view.UpdatedAt,
	})
}
