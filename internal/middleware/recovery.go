package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/tableagent/tableagent/internal/models"
)

// Recovery turns a handler panic into a 500 that carries the request id, so a
// client report can be matched to the logged stack. http.ErrAbortHandler is
// re-raised for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("panic recovered")

			models.WriteJSON(w, http.StatusInternalServerError, models.ErrorResponse{
				Status:    "error",
				Message:   "internal server error",
				Code:      http.StatusInternalServerError,
				RequestID: requestID,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
