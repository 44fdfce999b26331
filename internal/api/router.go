package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/hedgevol/internal/api/handlers"
	"github.com/wonny/hedgevol/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// rps <= 0 disables rate limiting. jobsHandler may be nil.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(hedgeHandler *handlers.HedgeHandler, jobsHandler *handlers.JobsHandler, rps float64, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Hedge endpoints
	api.HandleFunc("/portfolio", hedgeHandler.GetPortfolio).Methods("GET")
	api.HandleFunc("/pnl", hedgeHandler.PnL).Methods("POST")
	api.HandleFunc("/ivol", hedgeHandler.ImpliedVol).Methods("POST")
	api.HandleFunc("/skew", hedgeHandler.Skew).Methods("POST")

	// Scheduler endpoints
	if jobsHandler != nil {
		api.HandleFunc("/jobs", jobsHandler.List).Methods("GET")
		api.HandleFunc("/jobs/{name}/history", jobsHandler.History).Methods("GET")
		api.HandleFunc("/jobs/{name}/run", jobsHandler.Run).Methods("POST")
		api.HandleFunc("/jobs/{name}", jobsHandler.Remove).Methods("DELETE")
	}

	if rps > 0 {
		api.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))))
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "hedgevol-api",
	})
}

// rateLimitMiddleware rejects requests above the limiter's rate
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
