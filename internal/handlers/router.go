package handlers

import (
	"net/http"

	"github.com/artemis-chat-go/internal/middleware"
	"github.com/gorilla/mux"
)

const (
	ChatPath  = "/api/artemis-chat"
	EmbedPath = "/api/clip-embed"
)

// NewRouter wires the public endpoints.
func NewRouter(chat *ChatHandler, embed *EmbedHandler, limiter middleware.RateLimiter, metrics *middleware.Metrics, maxBodyBytes int64) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", middleware.HealthHandler).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(metrics.Instrument, middleware.CORS, limiter.Middleware, middleware.MaxBodySize(maxBodyBytes))
	api.Handle(ChatPath, chat)
	api.Handle(EmbedPath, embed)

	return router
}
