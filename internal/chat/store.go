package chat

import (
	"sort"
	"sync"

	"github.com/Tyrowin/directchat/internal/identity"
)

type conversation struct {
	mu       sync.RWMutex
	names    map[string]identity.Name
	messages []Message
}

// Store keeps the ordered message history of every room. Rooms are created
// on their first message and never removed.
type Store struct {
	mu    sync.RWMutex
	rooms map[identity.RoomKey]*conversation
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{rooms: make(map[identity.RoomKey]*conversation)}
}

func (s *Store) room(key identity.RoomKey) *conversation {
	s.mu.RLock()
	c, ok := s.rooms[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.rooms[key]; ok {
		return c
	}
	c = &conversation{names: make(map[string]identity.Name, 2)}
	s.rooms[key] = c
	return c
}

// Append adds msg at the end of its room. Appends to the same room are
// serialized; appends to different rooms do not contend past room lookup.
func (s *Store) Append(msg Message) {
	c := s.room(msg.Room)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	c.names[msg.Sender.Canonical] = msg.Sender
	if _, ok := c.names[msg.Recipient.Canonical]; !ok {
		c.names[msg.Recipient.Canonical] = msg.Recipient
	}
}

// History returns a copy of the messages of key in insertion order. An
// unknown room yields an empty slice.
func (s *Store) History(key identity.RoomKey) []Message {
	s.mu.RLock()
	c, ok := s.rooms[key]
	s.mu.RUnlock()
	if !ok {
		return []Message{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// RoomsInvolving returns every user that exchanged at least one message with
// name, sorted by canonical name. It scans all rooms.
func (s *Store) RoomsInvolving(name identity.Name) []identity.Name {
	s.mu.RLock()
	matched := make(map[string]*conversation)
	for key, c := range s.rooms {
		if key.Involves(name.Canonical) {
			matched[key.Other(name.Canonical)] = c
		}
	}
	s.mu.RUnlock()

	out := make([]identity.Name, 0, len(matched))
	for canonical, c := range matched {
		c.mu.RLock()
		other, ok := c.names[canonical]
		c.mu.RUnlock()
		if !ok {
			other = identity.Name{Display: canonical, Canonical: canonical}
		}
		out = append(out, other)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Canonical < out[j].Canonical
	})
	return out
}

// RoomCount returns the number of rooms holding at least one message.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
