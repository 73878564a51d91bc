// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, the login flow and the chat pages.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Tyrowin/directchat/internal/chat"
	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/samber/lo"
)

type friendView struct {
	Name   string `json:"username"`
	Online bool   `json:"online"`
}

type messageView struct {
	ID     string    `json:"id"`
	From   string    `json:"from"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
	Mine   bool      `json:"-"`
}

func (s *Server) friends(me identity.Name) []friendView {
	return lo.Map(s.service.ListFriends(me), func(n identity.Name, _ int) friendView {
		return friendView{Name: n.Display, Online: s.service.IsOnline(n)}
	})
}

func toMessageViews(me identity.Name, messages []chat.Message) []messageView {
	return lo.Map(messages, func(m chat.Message, _ int) messageView {
		return messageView{
			ID:     m.ID,
			From:   m.Sender.Display,
			Text:   m.Text,
			SentAt: m.SentAt,
			Mine:   m.Sender.Equal(me),
		}
	})
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, page, data); err != nil {
		s.log.Error("Error rendering page", "page", page, "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Error writing JSON response", "err", err)
	}
}

// currentUser resolves the session of r. It returns false when the request
// carries no valid session.
func (s *Server) currentUser(r *http.Request) (identity.Name, bool) {
	name, err := s.sessions.FromRequest(r)
	if err != nil {
		return identity.Name{}, false
	}
	return name, true
}

// WebSocketHandler handles WebSocket upgrade requests and manages client connections.
// It validates that the request uses the GET method and carries a session,
// upgrades the HTTP connection to WebSocket, creates a new Client instance,
// and registers it with the hub, which starts the client's read/write pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	name, ok := s.currentUser(r)
	if !ok {
		s.log.Debug("Rejected WebSocket connection without session", "addr", r.RemoteAddr)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(conn, s.hub, name, r.RemoteAddr)
	if !s.hub.Register(client) {
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "DirectChat server is running!")
}

// IndexHandler sends signed-in users to their chat page and everyone else
// to the login form.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// LoginPageHandler renders the login form.
func (s *Server) LoginPageHandler(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "login.html", map[string]string{})
}

// LoginHandler validates the submitted username and opens a session.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	name, err := identity.ValidateLogin(r.PostFormValue("username"))
	if err != nil {
		s.render(w, http.StatusBadRequest, "login.html", map[string]string{
			"Error": "Username must be between 3 and 20 characters",
		})
		return
	}

	if err := s.sessions.SetCookie(w, name); err != nil {
		s.log.Error("Error issuing session", "username", name.Display, "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.log.Info("User logged in", "username", name.Display)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// LogoutHandler clears the session.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ChatPageHandler renders the friend list of the signed-in user.
func (s *Server) ChatPageHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	s.render(w, http.StatusOK, "chat.html", map[string]any{
		"Username": me.Display,
		"Friends":  s.friends(me),
	})
}

// RoomPageHandler renders the conversation with the friend named in the
// "@friend" path segment.
func (s *Server) RoomPageHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	friend, ok := strings.CutPrefix(r.PathValue("room"), "@")
	if !ok {
		http.NotFound(w, r)
		return
	}

	history, err := s.service.History(me, friend)
	if err != nil {
		s.historyError(w, err)
		return
	}

	// History has already rejected an invalid friend name.
	other, _ := identity.Canonicalize(friend)
	s.render(w, http.StatusOK, "room.html", map[string]any{
		"Me":       me.Display,
		"Friend":   other.Display,
		"Online":   s.service.IsOnline(other),
		"Messages": toMessageViews(me, history),
	})
}

func (s *Server) historyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrSelfConversation):
		http.Error(w, "You cannot write to yourself", http.StatusBadRequest)
	case errors.Is(err, identity.ErrInvalidIdentity):
		http.Error(w, "Invalid username", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// OnlineAPIHandler lists the users currently online.
func (s *Server) OnlineAPIHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	online := lo.Map(s.service.ListOnline(), func(n identity.Name, _ int) string {
		return n.Display
	})
	s.writeJSON(w, http.StatusOK, map[string]any{"online": online})
}

// FriendsAPIHandler lists the friends of the signed-in user.
func (s *Server) FriendsAPIHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"friends": s.friends(me)})
}

// HistoryAPIHandler returns the conversation with the friend path value.
func (s *Server) HistoryAPIHandler(w http.ResponseWriter, r *http.Request) {
	me, ok := s.currentUser(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	history, err := s.service.History(me, r.PathValue("friend"))
	if err != nil {
		s.historyError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": toMessageViews(me, history)})
}
