package api

import (
	"log/slog"
	"net/http"
	"time"

	"kejani/guard"
	"kejani/identity"
)

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// recoverer turns panics into 500s instead of tearing the server down.
func recoverer(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", "path", r.URL.Path, "panic", rec)
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requireOwner wraps owner-only routes with the route guard. The
// decision is derived from the current session snapshot on every
// request, never from cached state. Pending sessions get a retryable
// 503 (the waiting state); denied ones get a 401 with the sign-in
// entry point.
func requireOwner(sessions *identity.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch d := guard.Evaluate(sessions.Current()); d.Verdict {
			case guard.VerdictPending:
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "session not resolved yet")
			case guard.VerdictDeny:
				writeJSON(w, http.StatusUnauthorized, errorResponse{
					Error:    d.Reason,
					Redirect: "/login",
				})
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
