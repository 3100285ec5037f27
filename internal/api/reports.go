package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/convoscore/internal/analysis"
	"github.com/ashureev/convoscore/internal/domain"
)

// ListReports returns every stored analysis, newest first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	results, err := h.repo.ListAnalyses(r.Context())
	if err != nil {
		slog.Error("Failed to list reports", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if results == nil {
		results = []*domain.AnalysisResult{}
	}
	JSON(w, http.StatusOK, results)
}

// GetReport returns the analysis of one conversation.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "conversationID")
	result, err := h.repo.GetAnalysis(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get report", "error", err, "conversation_id", id)
		Error(w, http.StatusInternalServerError, "failed to get report")
		return
	}
	if result == nil {
		Error(w, http.StatusNotFound, "report not found")
		return
	}
	JSON(w, http.StatusOK, result)
}

type sweepResponse struct {
	analysis.SweepReport
	Message string `json:"message"`
}

// Sweep analyzes every conversation that has no result yet.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.SweepPending(r.Context())
	if err != nil {
		slog.Error("Sweep failed", "error", err)
		Error(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	slog.Info(report.Message(), "selected", report.Selected, "failed", report.Failed)
	JSON(w, http.StatusOK, sweepResponse{SweepReport: report, Message: report.Message()})
}
