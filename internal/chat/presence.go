package chat

import (
	"log/slog"

	"github.com/Tyrowin/directchat/internal/identity"
)

// Publisher broadcasts presence transitions to every live connection,
// including the subject's own.
type Publisher struct {
	registry *Registry
	log      *slog.Logger
}

// NewPublisher creates a Publisher delivering to the live handles of registry.
func NewPublisher(registry *Registry, log *slog.Logger) *Publisher {
	return &Publisher{registry: registry, log: log}
}

// Publish delivers a PresenceEvent for name. It does not wait for, or
// retry, any delivery.
func (p *Publisher) Publish(name identity.Name, online bool) {
	handles := p.registry.Handles()
	event := PresenceEvent{Username: name.Display, Online: online}
	for _, h := range handles {
		h.Deliver(event)
	}
	p.log.Debug("Presence published", "username", name.Display, "online", online, "targets", len(handles))
}
