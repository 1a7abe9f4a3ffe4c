package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"sample-logistics/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// stockDetails identifies the offending dispatch line of an INSUFFICIENT_STOCK error.
type stockDetails struct {
	LineIndex     int   `json:"line_index"`
	ProductUnitID int64 `json:"product_unit_id"`
	Requested     int   `json:"requested"`
	Available     int   `json:"available"`
}

type quantityDetails struct {
	SampleID  int64 `json:"sample_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

type fieldDetails struct {
	Field string `json:"field"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorDetails(w, r, message, code, status, nil)
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, message, code string, status int, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
		Details:   details,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps an error returned by the application service onto an
// HTTP status and error code. Unclassified errors are logged and their message
// is withheld from the caller.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr *core.InsufficientStockError
		qtyErr   *core.InsufficientQuantityError
		valErr   *core.ValidationError
	)
	switch {
	case errors.As(err, &stockErr):
		writeErrorDetails(w, r, err.Error(), "INSUFFICIENT_STOCK", http.StatusConflict, stockDetails{
			LineIndex:     stockErr.LineIndex,
			ProductUnitID: stockErr.ProductUnitID,
			Requested:     stockErr.Requested,
			Available:     stockErr.Available,
		})
	case errors.As(err, &qtyErr):
		writeErrorDetails(w, r, err.Error(), "INSUFFICIENT_QUANTITY", http.StatusConflict, quantityDetails{
			SampleID:  qtyErr.SampleID,
			Requested: qtyErr.Requested,
			Available: qtyErr.Available,
		})
	case errors.As(err, &valErr):
		var details any
		if valErr.Field != "" {
			details = fieldDetails{Field: valErr.Field}
		}
		writeErrorDetails(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest, details)
	case errors.Is(err, core.ErrInvalidTransfer):
		writeError(w, r, err.Error(), "INVALID_TRANSFER", http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidOperation):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrAlreadyDelivered):
		writeError(w, r, err.Error(), "ALREADY_DELIVERED", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidStatusTransition):
		writeError(w, r, err.Error(), "INVALID_STATUS_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrForbidden):
		writeError(w, r, "you may not perform this operation", "FORBIDDEN", http.StatusForbidden)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeStatusJSON(w, http.StatusOK, v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
