package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/CameronXie/prosthesis-orders/internal/api/rest/response"
)

const internalServerErrorMessage = "Error interno del servidor"

// RecovererMiddleware turns handler panics into a logged 500 JSON response.
type RecovererMiddleware struct {
	logger *slog.Logger
}

// Handle recovers panics raised by next. http.ErrAbortHandler is re-raised.
func (m *RecovererMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			m.logger.ErrorContext(
				r.Context(),
				"panic recovered",
				"request_id", middleware.GetReqID(r.Context()),
				"error", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
		}()

		next.ServeHTTP(w, r)
	})
}

// NewRecovererMiddleware returns a Middleware recovering panics and logging them to logger.
func NewRecovererMiddleware(logger *slog.Logger) Middleware {
	return &RecovererMiddleware{logger: logger}
}
