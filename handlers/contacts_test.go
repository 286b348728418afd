package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestAPI(t *testing.T) (humatest.TestAPI, *ds.ContactsPersisted, *[]error) {
	t.Helper()
	store := ds.NewContactsPersisted(ds.NewMemorySlot(nil), nil)
	store.Load(context.Background())

	var errs []error
	api := humatest.Wrap(t, humago.New(http.NewServeMux(), huma.DefaultConfig("Test", "1.0.0")))
	huma.AutoRegister(huma.NewGroup(api, "/contacts"), &Contacts{
		Store:        store,
		ErrorHandler: func(_ context.Context, err error) { errs = append(errs, err) },
	})
	return api, store, &errs
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func addContact(t *testing.T, api humatest.TestAPI, body map[string]any) ContactModel {
	t.Helper()
	resp := api.Post("/contacts", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[ContactModel](t, resp)
}

func TestContacts_AddAndGet(t *testing.T) {
	api, store, _ := newTestAPI(t)

	added := addContact(t, api, map[string]any{"name": "Ann Lee", "phone": "555-1111", "email": "ann@x.com"})
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "Ann Lee", added.Name)
	assert.False(t, added.CreatedAt.IsZero())
	assert.Nil(t, added.UpdatedAt)
	assert.Len(t, store.List(context.Background()), 1)

	resp := api.Get("/contacts/" + added.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, added, decode[ContactModel](t, resp))
}

func TestContacts_AddRequiresNameAndPhone(t *testing.T) {
	api, store, _ := newTestAPI(t)

	for _, body := range []map[string]any{
		{"phone": "555"},
		{"name": "Ann"},
		{"name": "", "phone": "555"},
		{"name": "  ", "phone": "555"},
	} {
		resp := api.Post("/contacts", body)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, body)
	}
	assert.Empty(t, store.List(context.Background()))
}

func TestContacts_GetUnknown(t *testing.T) {
	api, _, errs := newTestAPI(t)

	assert.Equal(t, http.StatusNotFound, api.Get("/contacts/nope").Code)
	assert.Equal(t, http.StatusNotFound, api.Get("/contacts/BAAAAAAAAAAAAAAAAAAAAAAAAA").Code)
	assert.Len(t, *errs, 2)
}

func TestContacts_ListSearchAndSort(t *testing.T) {
	api, _, _ := newTestAPI(t)
	bob := addContact(t, api, map[string]any{"name": "Bob", "phone": "555-2222"})
	ann := addContact(t, api, map[string]any{"name": "Ann Lee", "phone": "555-1111", "email": "ann@x.com"})

	all := decode[[]ContactModel](t, api.Get("/contacts"))
	assert.Equal(t, []ContactModel{bob, ann}, all)

	sorted := decode[[]ContactModel](t, api.Get("/contacts?sort=name"))
	assert.Equal(t, []ContactModel{ann, bob}, sorted)

	assert.Equal(t, []ContactModel{ann}, decode[[]ContactModel](t, api.Get("/contacts?search=ANN")))
	assert.Equal(t, []ContactModel{bob}, decode[[]ContactModel](t, api.Get("/contacts?search=555-2222")))
	assert.Empty(t, decode[[]ContactModel](t, api.Get("/contacts?search=zzz")))

	assert.Equal(t, http.StatusUnprocessableEntity, api.Get("/contacts?sort=random").Code)
}

func TestContacts_ListTrailingSlash(t *testing.T) {
	api, _, _ := newTestAPI(t)
	ann := addContact(t, api, map[string]any{"name": "Ann", "phone": "1"})

	resp := api.Get("/contacts/")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, []ContactModel{ann}, decode[[]ContactModel](t, resp))
	assert.Equal(t, []ContactModel{ann}, decode[[]ContactModel](t, api.Get("/contacts/?search=an")))

	assert.Equal(t, http.StatusNotFound, api.Get("/contacts/a/b").Code)
	assert.NotContains(t, api.OpenAPI().Paths, "/contacts/{$}")
}

func TestContacts_Update(t *testing.T) {
	api, _, _ := newTestAPI(t)
	added := addContact(t, api, map[string]any{"name": "Ann", "phone": "1", "address": "here"})

	resp := api.Put("/contacts/"+added.ID, map[string]any{"name": "Ann Lee", "phone": "2"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[ContactModel](t, resp)
	assert.Equal(t, added.ID, updated.ID)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Ann Lee", updated.Name)
	assert.Empty(t, updated.Address, "fields are replaced wholesale")
	assert.NotNil(t, updated.UpdatedAt)

	assert.Equal(t, http.StatusNotFound,
		api.Put("/contacts/BAAAAAAAAAAAAAAAAAAAAAAAAA", map[string]any{"name": "x", "phone": "1"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity,
		api.Put("/contacts/"+added.ID, map[string]any{"name": "x", "phone": " "}).Code)
}

func TestContacts_DeleteTwoSteps(t *testing.T) {
	api, store, _ := newTestAPI(t)
	ann := addContact(t, api, map[string]any{"name": "Ann", "phone": "1"})
	bob := addContact(t, api, map[string]any{"name": "Bob", "phone": "2"})

	resp := api.Delete("/contacts/" + ann.ID)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	ticket := decode[DeleteTicketModel](t, resp)
	assert.Equal(t, ann.ID, ticket.ID)
	assert.Len(t, store.List(context.Background()), 2, "unconfirmed delete is a no-op")

	resp = api.Delete("/contacts/" + bob.ID + "?confirm=" + ticket.Token)
	assert.Equal(t, http.StatusAccepted, resp.Code, "token of another contact")
	resp = api.Delete("/contacts/" + ann.ID + "?confirm=garbage")
	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.Len(t, store.List(context.Background()), 2)

	resp = api.Delete("/contacts/" + ann.ID + "?confirm=" + ticket.Token)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Empty(t, resp.Body.String())
	assert.Equal(t, []ContactModel{bob}, decode[[]ContactModel](t, api.Get("/contacts")))

	assert.Equal(t, http.StatusNotFound, api.Delete("/contacts/"+ann.ID).Code)
}

func TestContacts_CancelDelete(t *testing.T) {
	api, store, _ := newTestAPI(t)
	ann := addContact(t, api, map[string]any{"name": "Ann", "phone": "1"})

	ticket := decode[DeleteTicketModel](t, api.Delete("/contacts/"+ann.ID))
	assert.Equal(t, http.StatusNoContent, api.Delete("/contacts/confirmations/"+ticket.Token).Code)
	assert.Equal(t, http.StatusNoContent, api.Delete("/contacts/confirmations/unknown").Code)

	resp := api.Delete("/contacts/" + ann.ID + "?confirm=" + ticket.Token)
	assert.Equal(t, http.StatusAccepted, resp.Code)
	assert.Len(t, store.List(context.Background()), 1)
}

func TestContacts_Stats(t *testing.T) {
	api, _, _ := newTestAPI(t)
	addContact(t, api, map[string]any{"name": "Ann", "phone": "1", "email": "a@x.com", "address": "here"})
	addContact(t, api, map[string]any{"name": "Bob", "phone": "2", "email": "b@x.com"})
	addContact(t, api, map[string]any{"name": "Eve", "phone": "3"})

	resp := api.Get("/contacts/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	stats := decode[map[string]any](t, resp)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 2, stats["withEmail"])
	assert.EqualValues(t, 1, stats["withAddress"])
}
