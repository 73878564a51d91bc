// Package identity normalizes usernames and derives the order-independent
// room key shared by the two participants of a direct conversation.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidIdentity  = errors.New("invalid identity")
	ErrSelfConversation = errors.New("self conversation is not allowed")
)

// Name is a username in both of its forms. Canonical is used for every
// comparison and key derivation, Display keeps the casing the user chose.
type Name struct {
	Display   string
	Canonical string
}

func (n Name) String() string {
	return n.Display
}

// Equal reports whether both names refer to the same user.
func (n Name) Equal(other Name) bool {
	return n.Canonical == other.Canonical
}

// Canonicalize trims raw and derives its canonical form.
func Canonicalize(raw string) (Name, error) {
	display := strings.TrimSpace(raw)
	if display == "" {
		return Name{}, ErrInvalidIdentity
	}
	return Name{Display: display, Canonical: strings.ToLower(display)}, nil
}

// RoomKey identifies a two-party conversation. Low is always the
// lexicographically smaller canonical name.
type RoomKey struct {
	Low  string
	High string
}

// NewRoomKey builds the key for a and b regardless of argument order or casing.
func NewRoomKey(a, b string) (RoomKey, error) {
	first, err := Canonicalize(a)
	if err != nil {
		return RoomKey{}, err
	}
	second, err := Canonicalize(b)
	if err != nil {
		return RoomKey{}, err
	}
	return KeyFor(first, second)
}

// KeyFor is NewRoomKey for names that are already canonicalized.
func KeyFor(a, b Name) (RoomKey, error) {
	if a.Canonical == b.Canonical {
		return RoomKey{}, ErrSelfConversation
	}
	if a.Canonical < b.Canonical {
		return RoomKey{Low: a.Canonical, High: b.Canonical}, nil
	}
	return RoomKey{Low: b.Canonical, High: a.Canonical}, nil
}

func (k RoomKey) String() string {
	return k.Low + "|" + k.High
}

// Involves reports whether canonical is one of the two participants.
func (k RoomKey) Involves(canonical string) bool {
	return k.Low == canonical || k.High == canonical
}

// Other returns the participant that is not canonical. The result is only
// meaningful when Involves(canonical) is true.
func (k RoomKey) Other(canonical string) string {
	if k.Low == canonical {
		return k.High
	}
	return k.Low
}

var validate = validator.New()

type loginForm struct {
	Username string `validate:"required,min=3,max=20"`
}

// ValidateLogin applies the login form rules on top of Canonicalize: the
// trimmed name must be between 3 and 20 characters long.
func ValidateLogin(raw string) (Name, error) {
	name, err := Canonicalize(raw)
	if err != nil {
		return Name{}, err
	}
	if err := validate.Struct(loginForm{Username: name.Display}); err != nil {
		return Name{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return name, nil
}
