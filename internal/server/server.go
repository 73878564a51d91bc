// Package server wires the chat engine, the session manager and the
// WebSocket hub into a single HTTP application.
package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/directchat/internal/chat"
	"github.com/Tyrowin/directchat/internal/session"
	"github.com/gorilla/websocket"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server serves the pages, the JSON views and the WebSocket endpoint of
// the direct chat service.
type Server struct {
	cfg      Config
	service  *chat.Service
	sessions *session.Manager
	hub      *Hub
	origins  originPolicy
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// New creates a Server. The hub is not running until Start is called.
func New(cfg Config, service *chat.Service, sessions *session.Manager, log *slog.Logger) *Server {
	cfg = sanitizeConfig(cfg)
	s := &Server{
		cfg:      cfg,
		service:  service,
		sessions: sessions,
		hub:      NewHub(service, cfg, log),
		origins:  newOriginPolicy(cfg.AllowedOrigins, log),
		log:      log,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Start launches the hub event loop in a separate goroutine.
// This should be called before starting the HTTP server.
func (s *Server) Start() {
	go s.hub.Run()
	s.log.Info("Hub started and ready to manage WebSocket connections")
}

// Hub returns the hub for shutdown coordination.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.origins.isAllowed(r) {
		return true
	}

	s.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}
