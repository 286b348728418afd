package datastores

import (
	"context"
	"errors"
	"strings"
	"time"
)

type (
	// ContactID is opaque text. Generated ids are random uuids in base32 form,
	// ids read from a slot are kept as written.
	ContactID struct{ s string }
	Contact   struct {
		ID        ContactID  `json:"id"`
		Name      string     `json:"name"`
		Phone     string     `json:"phone"`
		Email     string     `json:"email,omitempty"`
		Address   string     `json:"address,omitempty"`
		CreatedAt time.Time  `json:"createdAt"`
		UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	}
)

// ContactData holds the mutable fields of a [Contact].
type ContactData struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

var errEmptyContactID = errors.New("empty contact id")

func newContactID() ContactID {
	var u uuid32
	return ContactID{u.initV4().String()}
}

// ParseContactID accepts any non-empty text.
func ParseContactID(s string) (ContactID, error) {
	var id ContactID
	return id, id.UnmarshalText([]byte(s))
}

func (id ContactID) String() string { return id.s }

// IsZero reports whether id was never set.
func (id ContactID) IsZero() bool { return id.s == "" }

// MarshalText implements [encoding.TextMarshaler].
func (id ContactID) MarshalText() ([]byte, error) { return []byte(id.s), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (id *ContactID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		return errEmptyContactID
	}
	id.s = string(b)
	return nil
}

func (d ContactData) normalize() ContactData {
	return ContactData{
		Name:    strings.TrimSpace(d.Name),
		Phone:   strings.TrimSpace(d.Phone),
		Email:   strings.TrimSpace(d.Email),
		Address: strings.TrimSpace(d.Address),
	}
}

func (d ContactData) validate() error {
	if d.Name == "" || d.Phone == "" {
		return ErrInvalidContact
	}
	return nil
}

// Data returns the mutable fields of c.
func (c *Contact) Data() ContactData {
	return ContactData{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
}

// DeleteTicket is a pending deletion waiting for confirmation.
type DeleteTicket struct {
	Token   ConfirmToken
	ID      ContactID
	Expires time.Time
}

// Stats counts the stored contacts.
type Stats struct {
	Total       int
	WithEmail   int
	WithAddress int
}

// ContactsStore is the contact list owner. Mutations return the resulting list.
type ContactsStore interface {
	List(context.Context) []Contact
	Get(context.Context, ContactID) (Contact, error)
	Add(context.Context, ContactData) (Contact, []Contact, error)
	Update(context.Context, ContactID, ContactData) (Contact, []Contact, error)
	RequestDelete(context.Context, ContactID) (DeleteTicket, error)
	ConfirmDelete(context.Context, ContactID, ConfirmToken) ([]Contact, error)
	CancelDelete(context.Context, ConfirmToken) bool
	Stats(context.Context) Stats
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrInvalidContact = errors.New("store: name and phone are required")
	ErrUnconfirmed    = errors.New("store: deletion not confirmed")
	ErrSlotEmpty      = errors.New("store: slot is empty")
)
