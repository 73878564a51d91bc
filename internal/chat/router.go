package chat

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Tyrowin/directchat/internal/identity"
	"github.com/google/uuid"
)

// MaxMessageLength is the maximum number of characters of a trimmed message.
const MaxMessageLength = 2000

// ValidateText trims raw and checks it holds between 1 and MaxMessageLength
// characters.
func ValidateText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty text", ErrInvalidMessage)
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return "", fmt.Errorf("%w: %d characters exceeds limit of %d", ErrInvalidMessage, n, MaxMessageLength)
	}
	return text, nil
}

// Router records messages and delivers them to the live connections of
// their two participants.
type Router struct {
	registry *Registry
	store    *Store
	log      *slog.Logger
	now      func() time.Time
}

// NewRouter creates a Router appending to store and delivering through registry.
func NewRouter(registry *Registry, store *Store, log *slog.Logger) *Router {
	return &Router{
		registry: registry,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Route validates and appends a message from sender to recipient, then
// pushes it to whichever of the two is online. The message is recorded even
// when nobody receives it.
func (r *Router) Route(sender, recipient identity.Name, raw string) (Message, error) {
	text, err := ValidateText(raw)
	if err != nil {
		return Message{}, err
	}
	if sender.Equal(recipient) {
		return Message{}, identity.ErrSelfConversation
	}
	key, err := identity.KeyFor(sender, recipient)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Room:      key,
		SentAt:    r.now(),
	}
	r.store.Append(msg)

	delivered := 0
	for _, participant := range []identity.Name{sender, recipient} {
		h, ok := r.registry.LiveHandle(participant)
		if !ok {
			continue
		}
		counterpart := recipient
		if participant.Equal(recipient) {
			counterpart = sender
		}
		h.Deliver(MessageEvent{
			ID:   msg.ID,
			From: sender.Display,
			To:   recipient.Display,
			Text: text,
			Room: RoomTag(counterpart),
		})
		delivered++
	}

	r.log.Debug("Message routed", "room", key.String(), "from", sender.Display, "deliveries", delivered)
	return msg, nil
}
