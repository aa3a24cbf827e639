package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"domainagent/internal/assistant"
	"domainagent/internal/chat"
	"domainagent/internal/platform/metrics"
	"domainagent/internal/verification"
	"domainagent/pkg/platform/httputil"
	"domainagent/pkg/requestcontext"
)

// Service defines the conversation operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context) (*assistant.ConversationView, error)
	Send(ctx context.Context, conversationID, text string) (*assistant.TurnView, error)
	Get(ctx context.Context, conversationID string) (*assistant.ConversationView, error)
	Delete(ctx context.Context, conversationID string) error
	SuggestDomains(ctx context.Context, req verification.SuggestRequest) ([]verification.Suggestion, error)
	Session(ctx context.Context, sessionID string) (*chat.Session, error)
}

// Handler wires conversation endpoints to the assistant service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts the conversation endpoints on the router. throttle wraps
// only the routes that call out to the chat or verification backends.
func (h *Handler) Register(r chi.Router, throttle ...func(http.Handler) http.Handler) {
	r.Post("/conversations", h.HandleStart)
	r.Get("/conversations/{id}", h.HandleGet)
	r.Delete("/conversations/{id}", h.HandleDelete)
	r.Get("/sessions/{session_id}", h.HandleSession)

	costly := r.With(throttle...)
	costly.Post("/conversations/{id}/messages", h.HandleSend)
	costly.Post("/domains/suggest", h.HandleSuggest)
}

// HandleStart handles POST /conversations.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Start(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start conversation",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.IncrementConversationsStarted()
	httputil.WriteJSON(w, http.StatusCreated, FromConversation(view))
}

// HandleSend handles POST /conversations/{id}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	conversationID := chi.URLParam(r, "id")
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SendMessageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.Send(ctx, conversationID, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "turn not run",
			"request_id", requestID,
			"conversation_id", conversationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "turn completed",
		"request_id", requestID,
		"conversation_id", conversationID,
		"outcome", view.Outcome,
		"results", len(view.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromTurn(view))
}

// HandleGet handles GET /conversations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromConversation(view))
}

// HandleDelete handles DELETE /conversations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSuggest handles POST /domains/suggest.
func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SuggestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	suggestions, err := h.service.SuggestDomains(ctx, req.toModel())
	if err != nil {
		h.logger.WarnContext(ctx, "domain suggestion failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSuggestions(suggestions))
}

// HandleSession handles GET /sessions/{session_id}.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.service.Session(ctx, chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}
