// Package server wires HTTP handlers into a ServeMux for the direct chat
// application via routing helpers.
package server

import "net/http"

// SetupRoutes configures and returns an HTTP ServeMux with all application routes.
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.IndexHandler)
	mux.HandleFunc("GET /health", HealthHandler)
	mux.HandleFunc("GET /login", s.LoginPageHandler)
	mux.HandleFunc("POST /login", s.LoginHandler)
	mux.HandleFunc("GET /logout", s.LogoutHandler)
	mux.HandleFunc("GET /chat", s.ChatPageHandler)
	mux.HandleFunc("GET /chat/{room}", s.RoomPageHandler)
	mux.HandleFunc("GET /api/online", s.OnlineAPIHandler)
	mux.HandleFunc("GET /api/friends", s.FriendsAPIHandler)
	mux.HandleFunc("GET /api/history/{friend}", s.HistoryAPIHandler)
	mux.HandleFunc("/ws", s.WebSocketHandler)
	return mux
}
