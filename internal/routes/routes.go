package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"camper-agent-service/internal/config"
	"camper-agent-service/internal/handlers"
)

func NewRouter(cfg config.Config, log *zap.Logger, chat *handlers.ChatHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(handlers.WithRequestLogging(log))
	r.Use(handlers.WithCORS(cfg))
	r.NotFound(handlers.NotFound)

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := handlers.WithAPIKey(cfg)

	r.With(auth).Post("/chat", chat.HandleChat)
	r.With(auth).Post("/api/chat", chat.HandleChat)

	return r
}
