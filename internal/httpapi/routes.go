package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/room"
	"github.com/lectrix/buzzboard/internal/session"
	"github.com/lectrix/buzzboard/internal/ws"
)

func SetupRoutes(rm *room.Room, tokens *session.Registry, baseURL string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/seats", ClaimSeat(rm, log))
	r.Get("/join/qr.png", JoinQR(baseURL, log))
	r.Get("/healthz", Healthz)
	r.Get("/version", Version)
	r.Get("/ws", ws.Handler(rm, tokens, log))
	return r
}
