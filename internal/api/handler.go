// Package api provides HTTP handlers for the scoring API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/convoscore/internal/analysis"
	"github.com/ashureev/convoscore/internal/store"
)

// maxBodyBytes bounds intake request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the conversation, report and sweep endpoints.
type Handler struct {
	repo store.Repository
	svc  *analysis.Service
}

// NewHandler creates a new Handler.
func NewHandler(repo store.Repository, svc *analysis.Service) *Handler {
	return &Handler{repo: repo, svc: svc}
}

// RegisterRoutes registers the API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.ListConversations)
			r.Post("/", h.CreateConversation)
			r.Get("/{id}", h.GetConversation)
			r.Delete("/{id}", h.DeleteConversation)
			r.Post("/{id}/analyze", h.AnalyzeConversation)
		})
		r.Get("/reports", h.ListReports)
		r.Get("/reports/{conversationID}", h.GetReport)
		r.Post("/sweep", h.Sweep)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
