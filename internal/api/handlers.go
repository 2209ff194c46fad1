package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/abacus/internal/types"
)

// Service is the calculation flow served by the handlers.
type Service interface {
	Calculate(ctx context.Context, rawQuery string) (*types.CalculationResult, error)
	History(ctx context.Context) ([]types.CalculationRecord, error)
}

// Handler implements the API handlers
type Handler struct {
	svc Service
}

// NewHandler creates a new Handler backed by svc.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Calculate handles GET /calculate?num1=..&num2=..
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Calculate(r.Context(), r.URL.RawQuery)
	if err != nil {
		slog.Error("calculate failed",
			"error", err,
			"query", r.URL.RawQuery,
			"request_id", RequestIDFromContext(r.Context()),
		)
		MapServiceError(w, r, err)
		return
	}

	writeJSON(w, result)
}

// History handles GET /history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context())
	if err != nil {
		slog.Error("history failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		MapServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []types.CalculationRecord{}
	}

	writeJSON(w, records)
}

// NotFound answers every unrouted path and every non-GET method.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, "")
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		WriteError(w, nil, http.StatusInternalServerError, "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
