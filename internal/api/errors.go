package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wildgrid/wildcatch/internal/game"
)

// Error type identifiers returned in the envelope.
const (
	ErrTypeValidation   = "VALIDATION_ERROR"
	ErrTypeUnauthorized = "UNAUTHORIZED"
	ErrTypeConflict     = "CONFLICT"
	ErrTypeNotFound     = "NOT_FOUND"
	ErrTypeNotReady     = "NOT_READY"
	ErrTypeInternal     = "INTERNAL_ERROR"
)

// apiError is the structured error envelope every failure returns.
type apiError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// classify maps game errors onto HTTP status and envelope type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrUnauthorized):
		return http.StatusForbidden, ErrTypeUnauthorized
	case errors.Is(err, game.ErrUnknownRequest):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, game.ErrNotReady):
		return http.StatusConflict, ErrTypeNotReady
	case errors.Is(err, game.ErrAlreadyFulfilled),
		errors.Is(err, game.ErrAlreadyInitialized),
		errors.Is(err, game.ErrSlotOccupied),
		errors.Is(err, game.ErrSlotNotActive),
		errors.Is(err, game.ErrMaxActiveReached),
		errors.Is(err, game.ErrMaxAttempts),
		errors.Is(err, game.ErrVaultFull),
		errors.Is(err, game.ErrVaultEmpty),
		errors.Is(err, game.ErrInsufficientBalls),
		errors.Is(err, game.ErrInsufficientRevenue),
		errors.Is(err, game.ErrNotInitialized):
		return http.StatusConflict, ErrTypeConflict
	case errors.Is(err, game.ErrInvalidBallTier),
		errors.Is(err, game.ErrInvalidCatchRate),
		errors.Is(err, game.ErrInvalidSlotIndex),
		errors.Is(err, game.ErrInvalidCoordinate),
		errors.Is(err, game.ErrInvalidMaxActive),
		errors.Is(err, game.ErrInvalidAssetIndex),
		errors.Is(err, game.ErrZeroPrice),
		errors.Is(err, game.ErrZeroQuantity),
		errors.Is(err, game.ErrPurchaseExceedsMax):
		return http.StatusBadRequest, ErrTypeValidation
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// writeError writes the envelope for a game error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := classify(err)
	s.writeErrorEnvelope(w, r, status, errType, err.Error())
}

// writeValidationError writes a 400 for malformed request bodies.
func (s *Server) writeValidationError(w http.ResponseWriter, r *http.Request, message string) {
	s.writeErrorEnvelope(w, r, http.StatusBadRequest, ErrTypeValidation, message)
}

func (s *Server) writeErrorEnvelope(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	if status >= 500 {
		s.logger.Printf("error type=%s status=%d path=%s message=%q", errType, status, r.URL.Path, message)
	}
	s.writeJSON(w, status, apiError{
		Type:      errType,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
