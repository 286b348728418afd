package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/huma-contacts/datastores"
)

func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	type ref struct {
		*metrics.Counter
		*metrics.PrometheusHistogram
	}

	refs := sync.Map{}
	refsMu := sync.Mutex{}
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // arbitrary

	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)

		uid := op.OperationID + http.StatusText(ctx.Status())
		val, ok := refs.Load(uid)
		if !ok {
			refsMu.Lock()
			val, ok = refs.Load(uid)
			if !ok {
				labels := joinQuote("{method=", op.Method, ",path=", op.Path, ",status=", strconv.Itoa(ctx.Status()), "}") //nolint: golines
				val = ref{
					set.NewCounter("http_requests_total" + labels),
					set.NewPrometheusHistogramExt("http_request_duration_seconds"+labels, buckets),
				}
				refs.Store(uid, val)
			}
			refsMu.Unlock()
		}
		valref := val.(ref) //nolint: errcheck // always true
		valref.Counter.Inc()
		valref.PrometheusHistogram.UpdateDuration(start)
	}
}

// meteredContacts counts the successful mutations of a [ds.ContactsStore].
type meteredContacts struct {
	ds.ContactsStore
	set *metrics.Set
}

func (m *meteredContacts) inc(op string, err error) {
	if err == nil {
		m.set.GetOrCreateCounter(joinQuote("contacts_mutations_total{op=", op, "}")).Inc()
	}
}

func (m *meteredContacts) Add(ctx context.Context, data ds.ContactData) (ds.Contact, []ds.Contact, error) {
	c, list, err := m.ContactsStore.Add(ctx, data)
	m.inc("add", err)
	return c, list, err
}

func (m *meteredContacts) Update(ctx context.Context, id ds.ContactID, data ds.ContactData) (ds.Contact, []ds.Contact, error) { //nolint: golines
	c, list, err := m.ContactsStore.Update(ctx, id, data)
	m.inc("update", err)
	return c, list, err
}

// ConfirmDelete counts only confirmations that removed a stored contact.
func (m *meteredContacts) ConfirmDelete(ctx context.Context, id ds.ContactID, token ds.ConfirmToken) ([]ds.Contact, error) { //nolint: golines
	_, missing := m.ContactsStore.Get(ctx, id)
	list, err := m.ContactsStore.ConfirmDelete(ctx, id, token)
	if missing == nil && !slices.ContainsFunc(list, func(c ds.Contact) bool { return c.ID == id }) {
		m.inc("delete", err)
	}
	return list, err
}
