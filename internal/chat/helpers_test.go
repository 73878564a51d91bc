package chat

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	id     string
	mu     sync.Mutex
	events []Event
}

func newFakeHandle(id string) *fakeHandle {
	return &fakeHandle{id: id}
}

func (f *fakeHandle) ID() string { return f.id }

func (f *fakeHandle) Deliver(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

func (f *fakeHandle) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func (f *fakeHandle) messages() []MessageEvent {
	var out []MessageEvent
	for _, e := range f.received() {
		if m, ok := e.(MessageEvent); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeHandle) presence() []PresenceEvent {
	var out []PresenceEvent
	for _, e := range f.received() {
		if p, ok := e.(PresenceEvent); ok {
			out = append(out, p)
		}
	}
	return out
}

func name(t *testing.T, raw string) identity.Name {
	t.Helper()
	n, err := identity.Canonicalize(raw)
	require.NoError(t, err)
	return n
}

func roomKey(t *testing.T, a, b string) identity.RoomKey {
	t.Helper()
	key, err := identity.NewRoomKey(a, b)
	require.NoError(t, err)
	return key
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}
