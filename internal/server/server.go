package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scythe504/guessword-backend/internal/database"
	"github.com/scythe504/guessword-backend/internal/game"
	"github.com/scythe504/guessword-backend/internal/websocket"
)

type Server struct {
	registry *game.Registry
	hub      *websocket.Hub
	// db is nil when no archive is configured.
	db database.Service
}

func New(registry *game.Registry, hub *websocket.Hub, db database.Service) *Server {
	return &Server{registry: registry, hub: hub, db: db}
}

// NewServer builds the HTTP server listening on bind:port.
func NewServer(bind string, port int, s *Server) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
