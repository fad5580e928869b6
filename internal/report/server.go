package report

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/gainers/internal/pipeline"
	"github.com/wonny/gainers/pkg/logger"
)

// Store holds the latest completed pipeline result for the HTTP API.
type Store struct {
	mu     sync.RWMutex
	latest *pipeline.Result
}

// Set replaces the latest result.
func (s *Store) Set(result *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = result
}

// Get returns the latest result, nil when no run has completed yet.
func (s *Store) Get() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// NewRouter creates the HTTP router serving the latest run's results.
func NewRouter(store *Store, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/gainers", gainersHandler(store)).Methods("GET")
	api.HandleFunc("/portfolio", portfolioHandler(store)).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "gainers",
	})
}

// gainersHandler returns the extracted symbol listing of the latest run.
func gainersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := store.Get()
		if result == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no completed run yet"})
			return
		}

		type row struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		}
		rows := make([]row, 0, len(result.Gainers))
		for _, rec := range result.Gainers {
			rows = append(rows, row{Symbol: rec.Symbol, Name: rec.Name})
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ran_at":  result.RanAt.Format(time.RFC3339),
			"count":   len(rows),
			"gainers": rows,
		})
	}
}

// portfolioHandler returns the ranked portfolio summary of the latest run.
func portfolioHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := store.Get()
		if result == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no completed run yet"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ran_at":    result.RanAt.Format(time.RFC3339),
			"portfolio": result.Summary,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from handler panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithField("panic", err).Error("Handler panic recovered")
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
