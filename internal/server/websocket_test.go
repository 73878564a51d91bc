package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketHandlerMethodValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
		t.Run(method+" request should be rejected", func(t *testing.T) {
			req := httptest.NewRequest(method, "/ws", nil)
			w := httptest.NewRecorder()

			env.app.WebSocketHandler(w, req)

			require.Equal(t, http.StatusMethodNotAllowed, w.Code)
			require.Equal(t, "Method not allowed. WebSocket endpoint only accepts GET requests.", strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL, env.header(t, ""))
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketRejectsForgedSession(t *testing.T) {
	env := newTestEnv(t, nil)
	header := http.Header{}
	header.Set("Origin", testOrigin)
	header.Set("Cookie", "directchat_session=forged")

	_, resp, err := websocket.DefaultDialer.Dial(env.wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketOriginValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "configured origin", origin: testOrigin, allowed: true},
		{name: "configured origin with other casing", origin: "HTTP://DirectChat.Test", allowed: true},
		{name: "foreign origin", origin: "http://evil.example", allowed: false},
		{name: "missing origin", origin: "", allowed: false},
		{name: "malformed origin", origin: "not a url", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := env.header(t, "alice")
			if tt.origin == "" {
				header.Del("Origin")
			} else {
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL, header)
			if resp != nil && resp.Body != nil {
				defer func() { _ = resp.Body.Close() }()
			}
			if tt.allowed {
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestWebSocketAllowAllOrigins(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.AllowedOrigins = []string{"*"}
	})
	header := env.header(t, "alice")
	header.Set("Origin", "http://anything.example")

	conn, resp, err := websocket.DefaultDialer.Dial(env.wsURL, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	_ = conn.Close()
}

func TestDirectMessageDeliveredToBothParticipants(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.connect(t, "Alice")
	bob := env.connect(t, "bob")

	sendInbound(t, alice, "bob", "  hello bob  ")

	fromAlice := readUntil(t, alice, isMessage)
	m, ok := decodeMessage(fromAlice)
	require.True(t, ok)
	require.Equal(t, "Alice", m.From)
	require.Equal(t, "bob", m.To)
	require.Equal(t, "hello bob", m.Text)
	require.Equal(t, "@bob", m.Room)

	toBob := readUntil(t, bob, isMessage)
	m, ok = decodeMessage(toBob)
	require.True(t, ok)
	require.Equal(t, "Alice", m.From)
	require.Equal(t, "@Alice", m.Room)

	history, err := env.service.History(identity.Name{Display: "bob", Canonical: "bob"}, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestMessagesToOfflineUserAreOnlyRecorded(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.connect(t, "alice")

	sendInbound(t, alice, "carol", "ping")
	readUntil(t, alice, isMessage)

	carol := env.connect(t, "carol")
	expectNoMessage(t, carol, 200*time.Millisecond)

	resp := env.get(t, "/api/history/alice", "carol")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvalidFramesAreDropped(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := env.connect(t, "alice")
	env.connect(t, "bob")

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendInbound(t, alice, "bob", "   ")
	sendInbound(t, alice, "alice", "talking to myself")
	sendInbound(t, alice, "bob", strings.Repeat("x", 2001))
	sendInbound(t, alice, "bob", "still here")

	m, ok := decodeMessage(readUntil(t, alice, isMessage))
	require.True(t, ok)
	require.Equal(t, "still here", m.Text)
	require.Equal(t, 1, env.service.Store().RoomCount())
}

func TestPresenceBroadcast(t *testing.T) {
	env := newTestEnv(t, nil)
	bob := env.connect(t, "bob")
	alice := env.connect(t, "alice")

	readUntil(t, bob, func(e Envelope) bool {
		p, ok := decodePresence(e)
		return ok && p.Username == "alice" && p.Online
	})

	require.NoError(t, alice.Close())

	readUntil(t, bob, func(e Envelope) bool {
		p, ok := decodePresence(e)
		return ok && p.Username == "alice" && !p.Online
	})
	require.False(t, env.service.IsOnline(identity.Name{Display: "alice", Canonical: "alice"}))
}

func TestReconnectEvictsStaleConnection(t *testing.T) {
	env := newTestEnv(t, nil)
	bob := env.connect(t, "bob")
	first := env.connect(t, "alice")
	second := env.connect(t, "ALICE")

	expectClosed(t, first)

	// the evicted connection must not take alice offline
	require.Eventually(t, func() bool {
		return env.app.Hub().ClientCount() == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.True(t, env.service.IsOnline(identity.Name{Display: "alice", Canonical: "alice"}))

	sendInbound(t, bob, "alice", "which one are you?")
	m, ok := decodeMessage(readUntil(t, second, isMessage))
	require.True(t, ok)
	require.Equal(t, "@bob", m.Room)
}

func TestMessageSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.MaxMessageSize = 64
	})
	alice := env.connect(t, "alice")

	sendInbound(t, alice, "bob", strings.Repeat("x", 128))

	expectClosed(t, alice)
}
