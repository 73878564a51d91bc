package chat

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/samber/lo"
)

// Service owns the engine state and is the entry point of both the
// transport callbacks and the read-only page views.
type Service struct {
	registry  *Registry
	store     *Store
	publisher *Publisher
	router    *Router
	log       *slog.Logger
}

// NewService creates a Service with empty state. A nil logger discards output.
func NewService(log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	registry := NewRegistry()
	store := NewStore()
	return &Service{
		registry:  registry,
		store:     store,
		publisher: NewPublisher(registry, log),
		router:    NewRouter(registry, store, log),
		log:       log,
	}
}

// Registry exposes the session registry for read access.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Store exposes the conversation store for read access.
func (s *Service) Store() *Store {
	return s.store
}

// Connect registers h as the live connection of name and announces it
// online. The returned handle is the one h replaced; the caller should
// close it.
func (s *Service) Connect(name identity.Name, h Handle) Handle {
	previous := s.registry.Connect(name, h)
	if previous != nil {
		s.log.Info("Connection replaced", "username", name.Display, "conn", h.ID(), "previous", previous.ID())
	} else {
		s.log.Info("User connected", "username", name.Display, "conn", h.ID())
	}
	s.publisher.Publish(name, true)
	return previous
}

// Disconnect handles the closing of h. Nothing is published unless h was
// still the live connection of its user.
func (s *Service) Disconnect(h Handle) {
	name, ok := s.registry.Disconnect(h)
	if !ok {
		s.log.Debug("Ignoring disconnect of stale connection", "conn", h.ID())
		return
	}
	s.log.Info("User disconnected", "username", name.Display, "conn", h.ID())
	s.publisher.Publish(name, false)
}

// Receive handles a message submitted by an authenticated connection.
func (s *Service) Receive(sender identity.Name, in Inbound) error {
	if sender.Canonical == "" {
		return ErrUnknownSender
	}
	_, err := s.Send(sender, in.To, in.Text)
	return err
}

// Send routes text from sender to the user named to.
func (s *Service) Send(sender identity.Name, to, text string) (Message, error) {
	recipient, err := identity.Canonicalize(to)
	if err != nil {
		return Message{}, fmt.Errorf("recipient: %w", err)
	}
	if known, ok := s.registry.Known(recipient.Canonical); ok {
		recipient = known
	}
	return s.router.Route(sender, recipient, text)
}

// IsOnline reports whether name currently has a live connection.
func (s *Service) IsOnline(name identity.Name) bool {
	return s.registry.IsOnline(name)
}

// ListOnline returns the online users sorted by canonical name.
func (s *Service) ListOnline() []identity.Name {
	return s.registry.OnlineUsernames()
}

// ListFriends returns everyone me has talked to plus every other online
// user, sorted by canonical name and without duplicates.
func (s *Service) ListFriends(me identity.Name) []identity.Name {
	online := lo.Filter(s.registry.OnlineUsernames(), func(n identity.Name, _ int) bool {
		return !n.Equal(me)
	})
	friends := lo.UniqBy(append(online, s.store.RoomsInvolving(me)...), func(n identity.Name) string {
		return n.Canonical
	})
	sort.Slice(friends, func(i, j int) bool {
		return friends[i].Canonical < friends[j].Canonical
	})
	return friends
}

// History returns the conversation between me and friend in order.
func (s *Service) History(me identity.Name, friend string) ([]Message, error) {
	other, err := identity.Canonicalize(friend)
	if err != nil {
		return nil, err
	}
	key, err := identity.KeyFor(me, other)
	if err != nil {
		return nil, err
	}
	return s.store.History(key), nil
}
