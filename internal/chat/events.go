package chat

import (
	"time"

	"github.com/Tyrowin/directchat/internal/identity"
)

// Event names as seen on the wire.
const (
	EventUserStatus = "user_status"
	EventNewMessage = "new_message"
)

// Handle is one live real-time connection owned by the transport layer.
// Deliver is best effort and must return without waiting on the peer.
type Handle interface {
	ID() string
	Deliver(Event)
}

// Event is a payload pushed to a connection.
type Event interface {
	EventName() string
}

// PresenceEvent announces that a user went online or offline.
type PresenceEvent struct {
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

func (PresenceEvent) EventName() string { return EventUserStatus }

// MessageEvent carries a new message. Room is framed from the receiving
// connection's point of view: it names the other participant.
type MessageEvent struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Room string `json:"room"`
}

func (MessageEvent) EventName() string { return EventNewMessage }

// Inbound is a message submitted by a connected user.
type Inbound struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Message is an entry of a room history. It is never modified after it has
// been appended.
type Message struct {
	ID        string
	Sender    identity.Name
	Recipient identity.Name
	Text      string
	Room      identity.RoomKey
	SentAt    time.Time
}

// RoomTag is the label under which a participant files a conversation.
func RoomTag(counterpart identity.Name) string {
	return "@" + counterpart.Display
}
