package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/events"
	"marketplace/pkg/logger"
	"marketplace/pkg/status"
)

const (
	customerID = "c1a4d7e2-3b5f-4a60-9e21-5f0b8c7d6e01"
	workerID   = "0e9b6f1a-2c3d-4e5f-8a7b-6c5d4e3f2a02"
	worker2ID  = "5d4c3b2a-1f0e-4d9c-8b7a-6f5e4d3c2b03"

	bookingPending = "9a1f0c2e-6b7d-4e8f-a1b2-c3d4e5f60001"
	bookingStarted = "9a1f0c2e-6b7d-4e8f-a1b2-c3d4e5f60002"
	bookingDone    = "9a1f0c2e-6b7d-4e8f-a1b2-c3d4e5f60003"
	bookingMissing = "9a1f0c2e-6b7d-4e8f-a1b2-c3d4e5f60099"
)

type memStore struct {
	bookings map[string]*Booking
	reviews  map[string]Review
	lists    int
}

func newMemStore(items ...Booking) *memStore {
	s := &memStore{bookings: map[string]*Booking{}, reviews: map[string]Review{}}
	for i := range items {
		b := items[i]
		s.bookings[b.ID] = &b
	}
	return s
}

func owns(b *Booking, userID string, role status.Role) bool {
	switch role {
	case status.RoleCustomer:
		return b.CustomerID == userID
	case status.RoleWorker:
		return b.WorkerID == userID
	}
	return false
}

func (s *memStore) ListForUser(_ context.Context, userID string, role status.Role) ([]Booking, error) {
	s.lists++
	out := []Booking{}
	for _, b := range s.bookings {
		if owns(b, userID, role) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) GetForUser(_ context.Context, id, userID string, role status.Role) (*Booking, error) {
	b, ok := s.bookings[id]
	if !ok || !owns(b, userID, role) {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) Cancel(ctx context.Context, id, userID string, role status.Role, reason string) (*Booking, error) {
	b, err := s.GetForUser(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if !status.IsCancelable(b.Status, role) {
		return nil, ErrNotCancelable
	}
	s.bookings[id].Status = status.CanceledBy(role)
	s.bookings[id].CancelReason = reason
	cp := *s.bookings[id]
	return &cp, nil
}

func (s *memStore) AddReview(ctx context.Context, id, userID string, role status.Role, rating int, comment string) (*Review, error) {
	b, err := s.GetForUser(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}
	if !status.CanAddReview(b.Status, role) {
		return nil, ErrNotReviewable
	}
	if _, ok := s.reviews[id]; ok {
		return nil, ErrAlreadyReviewed
	}
	rev := Review{ID: "r-" + id, BookingID: id, Rating: rating, Comment: comment, CreatedAt: time.Now()}
	s.reviews[id] = rev
	return &rev, nil
}

func (s *memStore) Events(_ context.Context, id string) ([]events.StatusEvent, error) {
	return []events.StatusEvent{{ID: "e1", EntityKind: events.KindBooking, EntityID: id, FromStatus: 4, ToStatus: 5, Actor: "dispatch"}}, nil
}

// memCache is a map-backed ListCache.
type memCache struct {
	data map[string][]byte
}

func (c *memCache) Get(_ context.Context, scope, owner string, dst any) (bool, error) {
	b, ok := c.data[scope+":"+owner]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, scope, owner string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[scope+":"+owner] = b
	return nil
}

func (c *memCache) Invalidate(_ context.Context, scope string, owners ...string) error {
	for _, o := range owners {
		delete(c.data, scope+":"+o)
	}
	return nil
}

func fixtures() []Booking {
	return []Booking{
		{ID: bookingPending, CustomerID: customerID, WorkerID: workerID, ServiceName: "Plumbing", Price: decimal.RequireFromString("40.00"), Status: status.BookingPending},
		{ID: bookingStarted, CustomerID: customerID, WorkerID: workerID, ServiceName: "Painting", Price: decimal.RequireFromString("90.50"), Status: status.BookingStarted},
		{ID: bookingDone, CustomerID: customerID, WorkerID: worker2ID, ServiceName: "Cleaning", Price: decimal.RequireFromString("25.00"), Status: status.BookingCompleted},
	}
}

func newTestRouter(store Store, c cache.ListCache, userID string, role status.Role) http.Handler {
	h := Handlers{Store: store, Cache: c, Validator: api.NewValidator(), Log: logger.NewNop()}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := api.WithIdentity(r.Context(), &auth.Identity{UserID: userID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/bookings", h.List)
	r.Get("/bookings/{id}", h.Get)
	r.Get("/bookings/{id}/events", h.Events)
	r.Post("/bookings/{id}/cancel", h.Cancel)
	r.Post("/bookings/{id}/review", h.Review)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestList_CachesPerUser(t *testing.T) {
	store := newMemStore(fixtures()...)
	c := &memCache{data: map[string][]byte{}}
	h := newTestRouter(store, c, customerID, status.RoleCustomer)

	rec := do(t, h, http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Error)
	assert.Len(t, resp.Items, 3)

	rec = do(t, h, http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.lists, "second list must be served from cache")
}

func TestList_CacheIsKeyedByRole(t *testing.T) {
	// The same user id holding tokens for both roles.
	store := newMemStore(Booking{
		ID: bookingPending, CustomerID: customerID, WorkerID: customerID,
		ServiceName: "Plumbing", Price: decimal.RequireFromString("40.00"), Status: status.BookingCompleted,
	})
	c := &memCache{data: map[string][]byte{}}

	rec := do(t, newTestRouter(store, c, customerID, status.RoleCustomer), http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestRouter(store, c, customerID, status.RoleWorker), http.MethodGet, "/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, store.lists, "worker list must not be served from the customer entry")

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.False(t, resp.Items[0].Actions.CanAddReview)
	assert.Contains(t, c.data, cache.ScopeBookings+":"+cache.Owner(customerID, status.RoleWorker))
	assert.Contains(t, c.data, cache.ScopeBookings+":"+cache.Owner(customerID, status.RoleCustomer))
}

func TestGet_RendersStatus(t *testing.T) {
	h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, customerID, status.RoleCustomer)

	rec := do(t, h, http.MethodGet, "/bookings/"+bookingPending, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, status.BookingPending, resp.Booking.Status)
	assert.Equal(t, "Pending", resp.Booking.Label)
	assert.Equal(t, "PENDING", resp.Booking.StatusName)
	assert.Equal(t, status.Badge{Variant: status.VariantOutline, Color: status.ColorAmber}, resp.Booking.Badge)
	assert.True(t, resp.Booking.Actions.CanCancel)
	assert.False(t, resp.Booking.Actions.CanAddReview)
	assert.True(t, resp.Booking.Price.Equal(decimal.RequireFromString("40")))
}

func TestGet_OtherUsersBookingIsNotFound(t *testing.T) {
	h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, worker2ID, status.RoleWorker)

	rec := do(t, h, http.MethodGet, "/bookings/"+bookingPending, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":true`)
}

func TestCancel(t *testing.T) {
	t.Run("pending booking by worker", func(t *testing.T) {
		store := newMemStore(fixtures()...)
		c := &memCache{data: map[string][]byte{
			"bookings:customer:" + customerID: []byte("[]"),
			"bookings:worker:" + workerID:     []byte("[]"),
		}}
		h := newTestRouter(store, c, workerID, status.RoleWorker)

		rec := do(t, h, http.MethodPost, "/bookings/"+bookingPending+"/cancel", `{"reason":"sick"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, status.BookingCanceledByWorker, resp.Booking.Status)
		assert.Equal(t, "Canceled", resp.Booking.Label)
		assert.False(t, resp.Booking.Actions.CanCancel)
		assert.Empty(t, c.data, "lists of both parties must be invalidated")
	})

	t.Run("started booking is rejected", func(t *testing.T) {
		h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, customerID, status.RoleCustomer)
		rec := do(t, h, http.MethodPost, "/bookings/"+bookingStarted+"/cancel", `{"reason":"changed my mind"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("reason is required", func(t *testing.T) {
		h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, customerID, status.RoleCustomer)
		rec := do(t, h, http.MethodPost, "/bookings/"+bookingPending+"/cancel", `{"reason":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "reason is required")
	})

	t.Run("blank reason is rejected before any write", func(t *testing.T) {
		store := newMemStore(fixtures()...)
		h := newTestRouter(store, cache.Nop{}, customerID, status.RoleCustomer)
		rec := do(t, h, http.MethodPost, "/bookings/"+bookingPending+"/cancel", `{"reason":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "reason is required")
		assert.Equal(t, status.BookingPending, store.bookings[bookingPending].Status)
	})

	t.Run("reason is stored trimmed", func(t *testing.T) {
		store := newMemStore(fixtures()...)
		h := newTestRouter(store, cache.Nop{}, customerID, status.RoleCustomer)
		rec := do(t, h, http.MethodPost, "/bookings/"+bookingPending+"/cancel", `{"reason":"  moved house  "}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "moved house", store.bookings[bookingPending].CancelReason)
		assert.Equal(t, status.BookingCanceledByCustomer, store.bookings[bookingPending].Status)
	})
}

func TestMalformedIDIsNotFound(t *testing.T) {
	h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, customerID, status.RoleCustomer)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/bookings/abc"},
		{method: http.MethodGet, path: "/bookings/abc/events"},
		{method: http.MethodPost, path: "/bookings/abc/cancel", body: `{"reason":"sick"}`},
		{method: http.MethodPost, path: "/bookings/abc/review", body: `{"rating":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), ErrNotFound.Error())
		})
	}
}

func TestReview(t *testing.T) {
	store := newMemStore(fixtures()...)
	h := newTestRouter(store, cache.Nop{}, customerID, status.RoleCustomer)

	rec := do(t, h, http.MethodPost, "/bookings/"+bookingDone+"/review", `{"rating":5,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/bookings/"+bookingDone+"/review", `{"rating":4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/bookings/"+bookingPending+"/review", `{"rating":4}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/bookings/"+bookingDone+"/review", `{"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents(t *testing.T) {
	h := newTestRouter(newMemStore(fixtures()...), cache.Nop{}, customerID, status.RoleCustomer)

	rec := do(t, h, http.MethodGet, "/bookings/"+bookingPending+"/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].ToStatus)

	rec = do(t, h, http.MethodGet, "/bookings/"+bookingMissing+"/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewView_UnknownStatus(t *testing.T) {
	v := NewView(Booking{ID: "x", Status: status.BookingStatus(42)}, status.RoleCustomer)
	assert.Equal(t, "Unknown", v.Label)
	assert.Equal(t, status.Badge{Variant: status.VariantSecondary, Color: status.ColorGray}, v.Badge)
	assert.False(t, v.Actions.CanCancel)
}
