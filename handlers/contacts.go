package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID        string     `json:"id"                  readOnly:"true" example:"AGJBT3ZXPNHMHLXQEXZP4GZCJA"`
	Name      string     `json:"name"                                example:"Ann Lee"`
	Phone     string     `json:"phone"                               example:"555-1111"`
	Email     string     `json:"email,omitempty"                     example:"ann@example.com"`
	Address   string     `json:"address,omitempty"                   example:"1 Main St"`
	CreatedAt time.Time  `json:"createdAt"           readOnly:"true"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" readOnly:"true"`
}

// ContactInput is the body accepted by add and update.
type ContactInput struct {
	Name    string `json:"name"              minLength:"1" example:"Ann Lee"  doc:"Contact name"`
	Phone   string `json:"phone"             minLength:"1" example:"555-1111" doc:"Phone number"`
	Email   string `json:"email,omitempty"                 example:"ann@example.com"`
	Address string `json:"address,omitempty"               example:"1 Main St"`
}

func (in *ContactInput) data() ds.ContactData {
	return ds.ContactData{Name: in.Name, Phone: in.Phone, Email: in.Email, Address: in.Address}
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:        c.ID.String(),
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// parseID maps malformed ids to 404: they cannot name a stored contact.
func parseID(s string) (ds.ContactID, error) {
	id, err := ds.ParseContactID(s)
	if err != nil {
		return id, huma.Error404NotFound("id not found", err)
	}
	return id, nil
}

// storeError maps store errors to HTTP errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, ds.ErrObjectNotFound):
		return huma.Error404NotFound("id not found", err)
	case errors.Is(err, ds.ErrInvalidContact):
		return huma.Error422UnprocessableEntity("name and phone are required", err)
	default:
		return err
	}
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opID("list-contacts", "contacts", http.StatusInternalServerError),
	)
	// Trailing slash form, exact match only.
	huma.Get(api, "/{$}",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opID("list-contacts-slash", "contacts", http.StatusInternalServerError),
		func(o *huma.Operation) { o.Hidden = true },
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, input *struct {
	Search string       `query:"search" doc:"Case-insensitive match on name or email, case-sensitive on phone"`
	Sort   ds.SortOrder `query:"sort"   enum:"insertion,name" default:"insertion" doc:"Result order"`
}) (*ContactsListOutput, error) {
	contacts := ds.SortContacts(ds.FilterContacts(h.Store.List(ctx), input.Search), input.Sort)

	body := make([]ContactModel, 0, len(contacts))
	for i := range contacts {
		body = append(body, contactModel(&contacts[i]))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opID("get-contact", "contacts", http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *struct {
	ID string `path:"id" doc:"ID of the contact to get"`
}) (*ContactOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	contact, err := h.Store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(&contact)}, nil
}

func (h *Contacts) RegisterAdd(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "",
		handlerWithErrorHandler(h.add, h.ErrorHandler),
		opID("add-contact", "contacts", http.StatusUnprocessableEntity, http.StatusInternalServerError),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated },
	)
}

func (h *Contacts) add(ctx context.Context, input *struct {
	Body ContactInput
}) (*ContactOutput, error) {
	contact, _, err := h.Store.Add(ctx, input.Body.data())
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(&contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opID("update-contact", "contacts",
			http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusInternalServerError),
	)
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   string `path:"id" doc:"ID of the contact to update"`
	Body ContactInput
}) (*ContactOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	contact, _, err := h.Store.Update(ctx, id, input.Body.data())
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactOutput{Body: contactModel(&contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opID("delete-contact", "contacts", http.StatusNotFound, http.StatusInternalServerError),
		func(o *huma.Operation) {
			o.Description = "Without a valid confirm token nothing is deleted: " +
				"the response is 202 with a token to repeat the request with."
		},
	)
}

type DeleteTicketModel struct {
	Token   string    `json:"token"   doc:"Pass as the confirm query parameter to delete"`
	ID      string    `json:"id"      doc:"ID of the contact the token deletes"`
	Expires time.Time `json:"expires"`
}

type ContactsDelOutput struct {
	Status int
	Body   *DeleteTicketModel
}

func (h *Contacts) del(ctx context.Context, input *struct {
	ID      string `path:"id"       doc:"ID of the contact to delete"`
	Confirm string `query:"confirm" doc:"Token from a previous unconfirmed delete"`
}) (*ContactsDelOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}

	if input.Confirm != "" {
		token, err := ds.ParseConfirmToken(input.Confirm)
		if err == nil {
			_, err = h.Store.ConfirmDelete(ctx, id, token)
			if err == nil {
				return &ContactsDelOutput{Status: http.StatusNoContent}, nil
			}
			if !errors.Is(err, ds.ErrUnconfirmed) {
				return nil, storeError(err)
			}
		}
	}

	ticket, err := h.Store.RequestDelete(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return &ContactsDelOutput{
		Status: http.StatusAccepted,
		Body: &DeleteTicketModel{
			Token:   ticket.Token.String(),
			ID:      ticket.ID.String(),
			Expires: ticket.Expires,
		},
	}, nil
}

func (h *Contacts) RegisterCancel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/confirmations/{token}",
		handlerWithErrorHandler(h.cancel, h.ErrorHandler),
		opID("cancel-contact-deletion", "contacts", http.StatusInternalServerError),
	)
}

func (h *Contacts) cancel(ctx context.Context, input *struct {
	Token string `path:"token" doc:"Token of the pending deletion to drop"`
}) (*struct{}, error) {
	token, err := ds.ParseConfirmToken(input.Token)
	if err == nil {
		h.Store.CancelDelete(ctx, token)
	}
	return nil, nil //nolint: nilnil // 204 whether or not the token was live
}

func (h *Contacts) RegisterStats(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/stats",
		handlerWithErrorHandler(h.stats, h.ErrorHandler),
		opID("contacts-stats", "contacts", http.StatusInternalServerError),
	)
}

type ContactsStatsOutput struct {
	Body struct {
		Total       int `json:"total"       doc:"Number of contacts"`
		WithEmail   int `json:"withEmail"   doc:"Contacts having an email"`
		WithAddress int `json:"withAddress" doc:"Contacts having an address"`
	}
}

func (h *Contacts) stats(ctx context.Context, _ *struct{}) (*ContactsStatsOutput, error) {
	stats := h.Store.Stats(ctx)
	out := &ContactsStatsOutput{}
	out.Body.Total = stats.Total
	out.Body.WithEmail = stats.WithEmail
	out.Body.WithAddress = stats.WithAddress
	return out, nil
}
