// Package gateway serves the runner's live status: a health probe, a JSON
// snapshot of the counters and a websocket feed of events.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/coinsweeper/go/internal/events"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// StatusResponse is the body of GET /status
type StatusResponse struct {
	events.Snapshot
	Connections int `json:"connections"`
}

// Handler builds the status routes wrapped in CORS
func Handler(stats *events.Stats, hub *Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Warn().Err(err).Msg("failed to write health check response")
		}
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{Snapshot: stats.Snapshot()}
		if hub != nil {
			resp.Connections = hub.Count()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Warn().Err(err).Msg("failed to write status response")
		}
	})

	if hub != nil {
		router.Get("/ws", hub.ServeHTTP)
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// NewServer returns the status server for addr
func NewServer(addr string, stats *events.Stats, hub *Hub) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(Handler(stats, hub), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
