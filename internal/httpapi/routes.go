package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/hub"
	"github.com/classpick/classpick-backend/internal/roster"
	"github.com/classpick/classpick-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, store *roster.Store, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/classes", ListClasses(store))
	r.Post("/classes/{class}/session", StartSession(h, store, log))
	r.Delete("/classes/{class}/session", EndSession(h))
	r.Get("/classes/{class}/summary", Summary(h))
	r.Get("/ws", ws.Handler(h, log))
	r.Get("/healthz", Healthz)
	return r
}
