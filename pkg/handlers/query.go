// Package handlers exposes the query pipeline over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/idss-ai/text2sql-engine/pkg/apperrors"
	"github.com/idss-ai/text2sql-engine/pkg/services"
)

// QueryHandler handles SQL generation and field validation endpoints.
type QueryHandler struct {
	querySvc services.QueryService
	logger   *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(querySvc services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{querySvc: querySvc, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query/generate", h.Generate)
	mux.HandleFunc("POST /api/query/validate-fields", h.ValidateFields)
}

// GenerateRequest is the body of POST /api/query/generate.
type GenerateRequest struct {
	Question string `json:"question"`
}

// ValidateFieldsRequest is the body of POST /api/query/validate-fields.
type ValidateFieldsRequest struct {
	SQL string `json:"sql"`
}

// Generate handles POST /api/query/generate.
func (h *QueryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.querySvc.GenerateSQL(r.Context(), req.Question)
	if err != nil {
		status := http.StatusBadGateway
		code := "generation_failed"
		if errors.Is(err, apperrors.ErrEmptyQuestion) {
			status = http.StatusBadRequest
			code = "validation_error"
		}
		if err := ErrorResponse(w, status, code, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode generate response", zap.Error(err))
	}
}

// ValidateFields handles POST /api/query/validate-fields.
func (h *QueryHandler) ValidateFields(w http.ResponseWriter, r *http.Request) {
	var req ValidateFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.querySvc.ValidateSQLFields(req.SQL)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode validation response", zap.Error(err))
	}
}
