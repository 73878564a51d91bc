package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/directchat/internal/chat"
	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/Tyrowin/directchat/internal/session"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://directchat.test"

type testEnv struct {
	app      *Server
	service  *chat.Service
	sessions *session.Manager
	http     *httptest.Server
	wsURL    string
}

func newTestEnv(t *testing.T, customize func(cfg *Config)) *testEnv {
	t.Helper()

	cfg := NewConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	if customize != nil {
		customize(cfg)
	}

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	service := chat.NewService(log)
	sessions := session.NewManager("test-secret", time.Hour)
	app := New(*cfg, service, sessions, log)
	app.Start()

	ts := httptest.NewServer(app.SetupRoutes())
	t.Cleanup(func() {
		ts.Close()
		_ = app.Hub().Shutdown(2 * time.Second)
	})

	return &testEnv{
		app:      app,
		service:  service,
		sessions: sessions,
		http:     ts,
		wsURL:    "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func (e *testEnv) sessionCookie(t *testing.T, username string) *http.Cookie {
	t.Helper()
	name, err := identity.Canonicalize(username)
	require.NoError(t, err)
	token, err := e.sessions.Issue(name)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func (e *testEnv) header(t *testing.T, username string) http.Header {
	t.Helper()
	header := http.Header{}
	header.Set("Origin", testOrigin)
	if username != "" {
		header.Set("Cookie", e.sessionCookie(t, username).String())
	}
	return header
}

// connect dials the websocket as username and waits until the hub has
// registered the connection.
func (e *testEnv) connect(t *testing.T, username string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(e.wsURL, e.header(t, username))
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	readUntil(t, conn, func(env Envelope) bool {
		p, ok := decodePresence(env)
		return ok && p.Online && strings.EqualFold(p.Username, username)
	})
	return conn
}

func (e *testEnv) get(t *testing.T, path, username string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, e.http.URL+path, http.NoBody)
	require.NoError(t, err)
	if username != "" {
		req.AddCookie(e.sessionCookie(t, username))
	}

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readEnvelope(conn *websocket.Conn, timeout time.Duration) (Envelope, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Envelope{}, err
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	err = json.Unmarshal(raw, &env)
	return env, err
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(Envelope) bool) Envelope {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		env, err := readEnvelope(conn, time.Until(deadline))
		require.NoError(t, err)
		if match(env) {
			return env
		}
	}
	t.Fatal("expected frame was not received")
	return Envelope{}
}

func decodePresence(env Envelope) (chat.PresenceEvent, bool) {
	var p chat.PresenceEvent
	if env.Event != chat.EventUserStatus || json.Unmarshal(env.Data, &p) != nil {
		return p, false
	}
	return p, true
}

func decodeMessage(env Envelope) (chat.MessageEvent, bool) {
	var m chat.MessageEvent
	if env.Event != chat.EventNewMessage || json.Unmarshal(env.Data, &m) != nil {
		return m, false
	}
	return m, true
}

func isMessage(env Envelope) bool {
	return env.Event == chat.EventNewMessage
}

func sendInbound(t *testing.T, conn *websocket.Conn, to, text string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(chat.Inbound{To: to, Text: text}))
}

// expectNoMessage fails when conn receives a new_message frame within timeout.
func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		env, err := readEnvelope(conn, time.Until(deadline))
		if err != nil {
			return
		}
		require.False(t, isMessage(env), "unexpected message frame: %s", env.Data)
	}
}

// expectClosed waits until the server closes conn.
func expectClosed(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := readEnvelope(conn, time.Until(deadline))
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Fatal("connection was not closed by the server")
		}
		return
	}
}
