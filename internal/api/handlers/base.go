package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/api/models"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for all API handlers
type BaseHandler struct{}

// sendJSON sends a JSON response with the given status code and data
func (h *BaseHandler) sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response with the given status code and message
func (h *BaseHandler) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.sendJSON(w, statusCode, types.APIResponse{
		Success: false,
		Message: message,
	})
}

// sendSuccess sends a success response with the given data
func (h *BaseHandler) sendSuccess(w http.ResponseWriter, message string, data any) {
	h.sendJSON(w, http.StatusOK, types.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// sendCreated sends a 201 response with the created entity
func (h *BaseHandler) sendCreated(w http.ResponseWriter, message string, data any) {
	h.sendJSON(w, http.StatusCreated, types.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *BaseHandler) sendNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// handleError maps a service error to a status code. Responses carry a
// generic message per status. The wrapped error is logged with the request
// id: 4xx at debug, everything unexpected at error.
func (h *BaseHandler) handleError(w http.ResponseWriter, req *http.Request, action string, err error) {
	logger := loggerOf(req)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, types.ErrNotFound):
		logger.Debug().Err(err).Str("action", action).Msg("not found")
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("%s: not found", action))
	case errors.Is(err, types.ErrInvalid):
		logger.Debug().Err(err).Str("action", action).Msg("invalid request")
		h.sendError(w, http.StatusBadRequest, fmt.Sprintf("%s: invalid request", action))
	case errors.Is(err, types.ErrCycle):
		logger.Debug().Err(err).Str("action", action).Msg("move would create a cycle")
		h.sendError(w, http.StatusConflict, fmt.Sprintf("%s: item cannot move under itself", action))
	case errors.Is(err, types.ErrConflict):
		logger.Debug().Err(err).Str("action", action).Msg("conflict")
		h.sendError(w, http.StatusConflict, fmt.Sprintf("%s: conflict", action))
	case errors.As(err, &tooLarge):
		h.sendError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s: body exceeds %d bytes", action, tooLarge.Limit))
	default:
		logger.Error().Err(err).Str("action", action).Msg("request failed")
		h.sendError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func loggerOf(req *http.Request) zerolog.Logger {
	return xlog.FromContext(req.Context()).With().Str(xlog.FieldComponent, "api").Logger()
}

// bind reads a JSON body, validates it against schema and decodes it into
// dst. It answers the request itself and returns false when the body is
// unusable.
func (h *BaseHandler) bind(w http.ResponseWriter, req *http.Request, action string, schema *openapi3.Schema, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err != nil {
		h.handleError(w, req, action, err)
		return false
	}
	if err := models.Bind(body, schema, dst); err != nil {
		h.handleError(w, req, action, err)
		return false
	}
	return true
}
