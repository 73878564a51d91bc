package chat

import (
	"sort"
	"sync"

	"github.com/Tyrowin/directchat/internal/identity"
)

type session struct {
	name   identity.Name
	handle Handle
	online bool
}

// Registry is the source of truth for presence. It holds one session per
// canonical username and at most one live handle for it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	// handle ID -> canonical username, only for live handles
	byHandle map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		byHandle: make(map[string]string),
	}
}

// Connect makes h the live handle for name and marks it online. The handle
// it replaces, if any, is returned so the transport can close it.
func (r *Registry) Connect(name identity.Name, h Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name.Canonical]
	if !ok {
		s = &session{}
		r.sessions[name.Canonical] = s
	}

	var previous Handle
	if s.online && s.handle != nil && s.handle.ID() != h.ID() {
		previous = s.handle
		delete(r.byHandle, previous.ID())
	}

	s.name = name
	s.handle = h
	s.online = true
	r.byHandle[h.ID()] = name.Canonical

	return previous
}

// Disconnect marks offline the user whose live handle is h. It reports false
// when h is not live anymore, either because it was already disconnected or
// because the user reconnected with another handle.
func (r *Registry) Disconnect(h Handle) (identity.Name, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical, ok := r.byHandle[h.ID()]
	if !ok {
		return identity.Name{}, false
	}
	delete(r.byHandle, h.ID())

	s := r.sessions[canonical]
	s.online = false
	s.handle = nil
	return s.name, true
}

// IsOnline reports whether name has a live handle.
func (r *Registry) IsOnline(name identity.Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[name.Canonical]
	return ok && s.online
}

// LiveHandle returns the current handle of name if it is online.
func (r *Registry) LiveHandle(name identity.Name) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[name.Canonical]
	if !ok || !s.online {
		return nil, false
	}
	return s.handle, true
}

// Known returns the last display form registered for a canonical name.
// Offline users are still known.
func (r *Registry) Known(canonical string) (identity.Name, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[canonical]
	if !ok {
		return identity.Name{}, false
	}
	return s.name, true
}

// OnlineUsernames returns the online users sorted by canonical name.
func (r *Registry) OnlineUsernames() []identity.Name {
	r.mu.RLock()
	names := make([]identity.Name, 0, len(r.byHandle))
	for _, s := range r.sessions {
		if s.online {
			names = append(names, s.name)
		}
	}
	r.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool {
		return names[i].Canonical < names[j].Canonical
	})
	return names
}

// Handles returns a snapshot of every live handle.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]Handle, 0, len(r.byHandle))
	for _, s := range r.sessions {
		if s.online {
			handles = append(handles, s.handle)
		}
	}
	return handles
}
