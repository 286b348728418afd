package datastores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultConfirmTTL is how long a [DeleteTicket] stays valid unless
// [ContactsPersisted.ConfirmTTL] says otherwise.
const DefaultConfirmTTL = 5 * time.Minute

// ContactsPersisted implements [ContactsStore]. It keeps the list in memory
// and rewrites the whole list to its [Slot] after every mutation.
type ContactsPersisted struct {
	ConfirmTTL time.Duration
	Now        func() time.Time

	slot   Slot
	logger *slog.Logger

	mu       sync.Mutex
	loaded   bool
	index    map[ContactID]int
	contacts []Contact
	tickets  map[ConfirmToken]DeleteTicket
}

var _ ContactsStore = (*ContactsPersisted)(nil)

func NewContactsPersisted(slot Slot, logger *slog.Logger) *ContactsPersisted {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ContactsPersisted{
		ConfirmTTL: DefaultConfirmTTL,
		Now:        time.Now,
		slot:       slot,
		logger:     logger,
		index:      map[ContactID]int{},
		tickets:    map[ConfirmToken]DeleteTicket{},
	}
}

// Load replaces the list with the slot content. An absent, unreadable or
// unparsable slot gives an empty list; the cause is logged, never returned.
func (s *ContactsPersisted) Load(ctx context.Context) []Contact {
	contacts, err := s.read(ctx)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "starting with an empty contact list", slog.Any("err", err))
		contacts = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(contacts)
	s.loaded = true
	s.logger.LogAttrs(ctx, slog.LevelDebug, "contacts loaded", slog.Int("count", len(s.contacts)))
	return slices.Clone(s.contacts)
}

func (s *ContactsPersisted) read(ctx context.Context) ([]Contact, error) {
	b, err := s.slot.Read(ctx)
	if errors.Is(err, ErrSlotEmpty) || (err == nil && len(b) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeContacts(b)
}

// Loaded reports whether [ContactsPersisted.Load] has completed.
func (s *ContactsPersisted) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Persist writes the current list to the slot.
func (s *ContactsPersisted) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, s.contacts)
}

func (s *ContactsPersisted) List(_ context.Context) []Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

func (s *ContactsPersisted) Get(_ context.Context, id ContactID) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return Contact{}, ErrObjectNotFound
	}
	return s.contacts[index], nil
}

// Add appends a new contact with a fresh id and creation time.
func (s *ContactsPersisted) Add(ctx context.Context, data ContactData) (Contact, []Contact, error) {
	data = data.normalize()
	if err := data.validate(); err != nil {
		return Contact{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var id ContactID
retry:
	id = newContactID()
	if _, loaded := s.index[id]; loaded {
		goto retry
	}
	c := Contact{
		ID:        id,
		Name:      data.Name,
		Phone:     data.Phone,
		Email:     data.Email,
		Address:   data.Address,
		CreatedAt: s.now(),
	}

	next := append(slices.Clip(s.contacts), c)
	if err := s.commit(ctx, next); err != nil {
		return Contact{}, nil, err
	}
	return c, slices.Clone(s.contacts), nil
}

// Update replaces the mutable fields of the contact id, keeping its id and
// creation time.
func (s *ContactsPersisted) Update(ctx context.Context, id ContactID, data ContactData) (Contact, []Contact, error) {
	data = data.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return Contact{}, nil, ErrObjectNotFound
	}
	if err := data.validate(); err != nil {
		return Contact{}, nil, err
	}

	now := s.now()
	c := s.contacts[index]
	c.Name, c.Phone, c.Email, c.Address = data.Name, data.Phone, data.Email, data.Address
	c.UpdatedAt = &now

	next := slices.Clone(s.contacts)
	next[index] = c
	if err := s.commit(ctx, next); err != nil {
		return Contact{}, nil, err
	}
	return c, slices.Clone(s.contacts), nil
}

// RequestDelete issues the ticket that [ContactsPersisted.ConfirmDelete]
// needs to remove the contact id. Nothing is removed yet.
func (s *ContactsPersisted) RequestDelete(_ context.Context, id ContactID) (DeleteTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneTickets()
	if _, ok := s.index[id]; !ok {
		return DeleteTicket{}, ErrObjectNotFound
	}

	ticket := DeleteTicket{Token: newConfirmToken(), ID: id, Expires: s.now().Add(s.ConfirmTTL)}
	s.tickets[ticket.Token] = ticket
	return ticket, nil
}

// ConfirmDelete removes the contact id when token is a live ticket issued for
// id. Any other token returns [ErrUnconfirmed] and changes nothing. A ticket
// is consumed by its first use.
func (s *ContactsPersisted) ConfirmDelete(ctx context.Context, id ContactID, token ConfirmToken) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneTickets()
	ticket, ok := s.tickets[token]
	if !ok || ticket.ID != id {
		return nil, ErrUnconfirmed
	}
	delete(s.tickets, token)

	index, ok := s.index[id]
	if !ok {
		return slices.Clone(s.contacts), nil
	}
	next := slices.Delete(slices.Clone(s.contacts), index, index+1)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return slices.Clone(s.contacts), nil
}

// CancelDelete drops a pending ticket and reports whether it was live.
func (s *ContactsPersisted) CancelDelete(_ context.Context, token ConfirmToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneTickets()
	_, ok := s.tickets[token]
	delete(s.tickets, token)
	return ok
}

func (s *ContactsPersisted) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{Total: len(s.contacts)}
	for _, c := range s.contacts {
		if c.Email != "" {
			stats.WithEmail++
		}
		if c.Address != "" {
			stats.WithAddress++
		}
	}
	return stats
}

// commit persists next and then makes it the current list.
// On a failed write the current list is left as it was.
func (s *ContactsPersisted) commit(ctx context.Context, next []Contact) error {
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.reset(next)
	return nil
}

func (s *ContactsPersisted) write(ctx context.Context, contacts []Contact) error {
	b, err := EncodeContacts(contacts)
	if err != nil {
		return fmt.Errorf("persist contacts: %w", err)
	}
	if err = s.slot.Write(ctx, b); err != nil {
		return fmt.Errorf("persist contacts: %w", err)
	}
	return nil
}

func (s *ContactsPersisted) reset(contacts []Contact) {
	s.contacts = contacts
	clear(s.index)
	for i, c := range contacts {
		s.index[c.ID] = i
	}
}

func (s *ContactsPersisted) pruneTickets() {
	now := s.now()
	for token, ticket := range s.tickets {
		if !now.Before(ticket.Expires) {
			delete(s.tickets, token)
		}
	}
}

// now is millisecond precision UTC, the precision of the slot format.
func (s *ContactsPersisted) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}
