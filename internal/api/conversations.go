package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/store"
)

// errCouldNotAnalyze is returned when a conversation has nothing to score.
const errCouldNotAnalyze = "Could not analyze conversation"

type messageRequest struct {
	Sender    domain.Sender `json:"sender"`
	Text      string        `json:"text"`
	Timestamp *time.Time    `json:"timestamp,omitempty"`
}

type createConversationRequest struct {
	Title    string           `json:"title"`
	Messages []messageRequest `json:"messages"`
}

type createConversationResponse struct {
	Conversation *domain.Conversation  `json:"conversation"`
	Analysis     *domain.AnalysisResult `json:"analysis,omitempty"`
}

// CreateConversation stores a transcript and analyzes it immediately.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	conv := &domain.Conversation{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: now,
		Messages:  make([]domain.Message, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		msg := domain.Message{Sender: m.Sender, Text: m.Text}
		if m.Timestamp != nil {
			msg.Timestamp = m.Timestamp.UTC().Truncate(time.Microsecond)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	conv.StampMessages(now)

	if err := conv.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if err := h.repo.CreateConversation(ctx, conv); err != nil {
		slog.Error("Failed to create conversation", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}
	slog.Info("Conversation created", "conversation_id", conv.ID, "messages", len(conv.Messages))

	if len(conv.Messages) == 0 {
		JSON(w, http.StatusCreated, conv)
		return
	}

	resp := createConversationResponse{Conversation: conv}
	result, err := h.svc.Analyze(ctx, conv.ID)
	if err != nil {
		// The transcript is stored; the sweep will pick it up later.
		slog.Error("Failed to analyze new conversation", "error", err, "conversation_id", conv.ID)
	}
	resp.Analysis = result

	JSON(w, http.StatusCreated, resp)
}

// ListConversations returns all conversations without their messages.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.repo.ListConversations(r.Context())
	if err != nil {
		slog.Error("Failed to list conversations", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	JSON(w, http.StatusOK, convs)
}

// GetConversation returns one conversation with its messages.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conv, err := h.repo.GetConversation(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}
	JSON(w, http.StatusOK, conv)
}

// DeleteConversation removes a conversation together with its analysis.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.repo.DeleteConversation(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "conversation not found")
	case err != nil:
		slog.Error("Failed to delete conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to delete conversation")
	default:
		slog.Info("Conversation deleted", "conversation_id", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// AnalyzeConversation re-runs the analysis and returns the replaced result.
func (h *Handler) AnalyzeConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	conv, err := h.repo.GetConversation(ctx, id)
	if err != nil {
		slog.Error("Failed to get conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	result, err := h.svc.Analyze(ctx, id)
	if err != nil {
		slog.Error("Failed to analyze conversation", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to analyze conversation")
		return
	}
	if result == nil {
		Error(w, http.StatusBadRequest, errCouldNotAnalyze)
		return
	}
	JSON(w, http.StatusOK, result)
}
