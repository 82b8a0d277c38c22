package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/monoko6666/mercari-ebay/logger"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument attaches a request-scoped logger and records route metrics.
// Routes are labelled by template so product ids do not explode cardinality.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		log := logger.ForAPI().WithFields(logger.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"route":      route,
		})
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(log.Attach(r.Context())))

		elapsed := time.Since(start)
		h.metrics.RecordRequest(r.Method, route, rec.status, elapsed)
		log.Debug().
			Int("status", rec.status).
			Dur("duration", elapsed).
			Msg("Handled request")
	})
}

// withCORS allows the frontend origin and answers preflight requests
func withCORS(next http.Handler, origin string) http.Handler {
	if origin == "" {
		return next
	}
	return handlers.CORS(
		handlers.AllowedOrigins([]string{origin}),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(next)
}
