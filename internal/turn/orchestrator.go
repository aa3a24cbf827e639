// Package turn sequences one conversational turn: send the user's text to the
// chat backend, verify any proposed domains, merge verification with the
// chat's reasons, and fall back to placeholder rows when verification is
// down.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"domainagent/internal/chat"
	"domainagent/internal/conversation"
	"domainagent/internal/turn/metrics"
	"domainagent/internal/verification"
	"domainagent/pkg/requestcontext"
)

var tracer = otel.Tracer("domainagent/internal/turn")

// DefaultFailureMessage is appended as the assistant's reply when the chat
// step fails.
const DefaultFailureMessage = "Sorry, something went wrong. Please try again later."

// ChatClient sends one user message to the chat backend.
type ChatClient interface {
	SendTurn(ctx context.Context, message, sessionID string) (*chat.Response, error)
}

// Verifier checks a batch of domains in one call.
type Verifier interface {
	CheckDomains(ctx context.Context, domains []string) ([]verification.Result, error)
}

// ResultsListener receives every emitted result list.
type ResultsListener func(ctx context.Context, results []Result)

// Orchestrator owns one conversation's turn sequencing. At most one turn runs
// at a time; concurrent sends are rejected, not queued.
type Orchestrator struct {
	chat        ChatClient
	verifier    Verifier
	conv        *conversation.State
	mode        MatchMode
	placeholder PlaceholderPolicy
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	listener    ResultsListener
	failureText string

	mu      sync.Mutex
	state   State
	results []Result
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithConversation continues an existing conversation instead of a new one.
func WithConversation(conv *conversation.State) Option {
	return func(o *Orchestrator) {
		if conv != nil {
			o.conv = conv
		}
	}
}

// WithResults seeds the last emitted list, for rehydrated conversations.
func WithResults(results []Result) Option {
	return func(o *Orchestrator) {
		o.results = append([]Result(nil), results...)
	}
}

func WithMatchMode(mode MatchMode) Option {
	return func(o *Orchestrator) {
		o.mode = mode
	}
}

func WithPlaceholderPolicy(policy PlaceholderPolicy) Option {
	return func(o *Orchestrator) {
		if policy != nil {
			o.placeholder = policy
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func WithResultsListener(l ResultsListener) Option {
	return func(o *Orchestrator) {
		o.listener = l
	}
}

func WithFailureMessage(text string) Option {
	return func(o *Orchestrator) {
		if text != "" {
			o.failureText = text
		}
	}
}

func New(chatClient ChatClient, verifier Verifier, opts ...Option) (*Orchestrator, error) {
	if chatClient == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}

	o := &Orchestrator{
		chat:        chatClient,
		verifier:    verifier,
		conv:        conversation.New(),
		mode:        MatchExact,
		placeholder: RandomPlaceholders,
		logger:      slog.Default(),
		now:         time.Now,
		failureText: DefaultFailureMessage,
		state:       StateIdle,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Results returns a copy of the most recently emitted list.
func (o *Orchestrator) Results() []Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Result(nil), o.results...)
}

// Transcript returns a copy of the conversation so far.
func (o *Orchestrator) Transcript() []conversation.Message {
	return o.conv.Transcript()
}

// SessionID returns the chat session id, or "" before the first reply.
func (o *Orchestrator) SessionID() string {
	return o.conv.SessionID()
}

// Send runs one turn for text. It never returns an error: chat failures end
// in a fixed assistant message and verification failures in placeholder rows.
// Blank text and sends made while a turn is in flight are rejected without
// side effects.
func (o *Orchestrator) Send(ctx context.Context, text string) (out Outcome) {
	if strings.TrimSpace(text) == "" {
		o.metrics.IncrementRejected("blank")
		return Outcome{Kind: OutcomeRejected}
	}
	if !o.begin() {
		o.metrics.IncrementRejected("busy")
		o.logger.DebugContext(ctx, "send rejected, turn in flight",
			"conversation_id", requestcontext.ConversationID(ctx),
		)
		return Outcome{Kind: OutcomeRejected}
	}

	start := o.now()
	ctx, span := tracer.Start(ctx, "turn.Send")
	t := &turnRun{o: o}

	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorContext(ctx, "turn panicked",
				"conversation_id", requestcontext.ConversationID(ctx),
				"panic", r,
			)
			span.SetStatus(codes.Error, "panic")
			if !t.replied {
				o.appendFailure()
			}
			out = Outcome{Kind: OutcomeChatFailed}
		}
		o.transition(StateIdle)
		o.metrics.ObserveTurn(string(out.Kind), o.now().Sub(start))
		span.SetAttributes(attribute.String("turn.outcome", string(out.Kind)))
		span.End()
	}()

	o.conv.AppendMessage(conversation.NewUserMessage(text, o.now()))
	return t.run(ctx, text)
}

// begin moves Idle to Sending. Reports false if a turn is already running.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return false
	}
	o.state = StateSending
	return true
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	o.state = to
	o.mu.Unlock()
}

func (o *Orchestrator) appendFailure() {
	o.conv.AppendMessage(conversation.NewAssistantMessage(o.failureText, o.now()))
}

// emit replaces the previous list and notifies the listener.
func (o *Orchestrator) emit(ctx context.Context, results []Result) {
	o.mu.Lock()
	o.results = append([]Result(nil), results...)
	o.mu.Unlock()
	if o.listener != nil {
		o.listener(ctx, results)
	}
}

// turnRun carries per-turn progress so panic recovery knows whether the
// assistant already replied.
type turnRun struct {
	o       *Orchestrator
	replied bool
}

func (t *turnRun) run(ctx context.Context, text string) Outcome {
	o := t.o
	conversationID := requestcontext.ConversationID(ctx)

	resp, err := o.chat.SendTurn(ctx, text, o.conv.SessionID())
	if err == nil && resp == nil {
		err = errors.New("chat backend returned no response")
	}
	if err != nil {
		return t.chatFailed(ctx, err)
	}

	if o.conv.SetSessionIfUnset(resp.SessionID) {
		o.logger.InfoContext(ctx, "chat session established",
			"conversation_id", conversationID,
			"session_id", resp.SessionID,
		)
	}

	at, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	if err != nil {
		return t.chatFailed(ctx, fmt.Errorf("parse reply timestamp %q: %w", resp.Timestamp, err))
	}
	o.conv.AppendMessage(conversation.NewAssistantMessage(resp.Message, at))
	t.replied = true

	if !resp.Payload.HasDomains() {
		return Outcome{Kind: OutcomeReplied}
	}

	idx := newReasonIndex(o.mode, resp.Payload.DomainReasons)
	cands := candidates(resp.Payload, idx)
	o.metrics.ObserveCandidates(len(cands))

	o.transition(StateAwaitingVerification)
	verified, err := t.verify(ctx, resp.Payload.Domains)
	if err != nil {
		results := t.verificationUnavailable(ctx, cands, err)
		o.emit(ctx, results)
		return Outcome{Kind: OutcomeVerificationUnavailable, Results: results, Emitted: true}
	}

	results, report := merge(cands, verified, idx)
	if len(report.Omitted) > 0 {
		o.metrics.AddOmittedCandidates(len(report.Omitted))
		o.logger.WarnContext(ctx, "verification omitted candidates",
			"conversation_id", conversationID,
			"domains", report.Omitted,
		)
	}
	for _, d := range report.MissingReasons {
		o.metrics.IncrementReasonMismatch()
		o.logger.DebugContext(ctx, "no reason for verified domain",
			"conversation_id", conversationID,
			"domain", d,
		)
	}
	o.emit(ctx, results)
	return Outcome{Kind: OutcomeVerified, Results: results, Emitted: true}
}

func (t *turnRun) chatFailed(ctx context.Context, err error) Outcome {
	t.o.logger.ErrorContext(ctx, "chat turn failed",
		"conversation_id", requestcontext.ConversationID(ctx),
		"error", err,
	)
	t.o.appendFailure()
	t.replied = true
	return Outcome{Kind: OutcomeChatFailed}
}

// verify makes the single batched verification call. A panicking verifier
// counts as unavailable.
func (t *turnRun) verify(ctx context.Context, domains []string) (results []verification.Result, err error) {
	ctx, span := tracer.Start(ctx, "turn.verify")
	span.SetAttributes(attribute.Int("turn.candidates", len(domains)))
	start := t.o.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verifier panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "verification failed")
		}
		t.o.metrics.ObserveVerify(err == nil, t.o.now().Sub(start))
		span.End()
	}()
	return t.o.verifier.CheckDomains(ctx, domains)
}

// verificationUnavailable is the degraded branch: one placeholder row per
// candidate in proposal order.
func (t *turnRun) verificationUnavailable(ctx context.Context, cands []Candidate, err error) []Result {
	t.o.logger.WarnContext(ctx, "verification unavailable, emitting placeholder results",
		"conversation_id", requestcontext.ConversationID(ctx),
		"candidates", len(cands),
		"error", err,
	)
	return placeholders(cands, t.o.placeholder)
}
