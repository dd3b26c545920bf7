package http

import (
	"errors"
	"net/http"
	"strings"

	"finboard/internal/log"
	"finboard/internal/services"
)

// sanitizeInput trims and drops control characters other than tab, newline
// and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// serviceError maps ledger service errors to responses. Unknown errors are
// logged and hidden behind a generic 500.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrEmptyImport):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, services.ErrSyncedImmutable):
		ConflictError(err.Error()).Write(w)
	case errors.Is(err, services.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
	default:
		events(r).LogError(r.Context(), "Ledger operation failed", err, log.ComponentLedger, op, log.ErrorTypeInternal)
		InternalServerError("ledger operation failed").Write(w)
	}
}
