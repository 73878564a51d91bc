package chat

import "errors"

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrUnknownSender  = errors.New("unknown sender")
)
