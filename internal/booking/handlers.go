package booking

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"marketplace/internal/api"
	"marketplace/internal/cache"
	"marketplace/internal/events"
	"marketplace/internal/metrics"
	"marketplace/pkg/logger"
	"marketplace/pkg/status"
)

type Store interface {
	ListForUser(ctx context.Context, userID string, role status.Role) ([]Booking, error)
	GetForUser(ctx context.Context, id, userID string, role status.Role) (*Booking, error)
	Cancel(ctx context.Context, id, userID string, role status.Role, reason string) (*Booking, error)
	AddReview(ctx context.Context, id, userID string, role status.Role, rating int, comment string) (*Review, error)
	Events(ctx context.Context, id string) ([]events.StatusEvent, error)
}

type Handlers struct {
	Store     Store
	Cache     cache.ListCache
	Validator *api.Validator
	Log       *logger.Zap
}

type ListResponse struct {
	api.Envelope
	Items []View `json:"items"`
}

type Response struct {
	api.Envelope
	Booking View `json:"booking"`
}

type EventsResponse struct {
	api.Envelope
	Items []events.StatusEvent `json:"items"`
}

type ReviewResponse struct {
	api.Envelope
	Review Review `json:"review"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	owner := cache.Owner(id.UserID, id.Role)
	var views []View
	hit, err := h.Cache.Get(r.Context(), cache.ScopeBookings, owner, &views)
	if err != nil {
		h.Log.Warn("booking list cache read failed", zap.Error(err), zap.String("user_id", id.UserID))
	}
	if !hit {
		items, err := h.Store.ListForUser(r.Context(), id.UserID, id.Role)
		if err != nil {
			h.Log.Error("list bookings failed", zap.Error(err), zap.String("user_id", id.UserID))
			api.WriteError(w, http.StatusInternalServerError, "")
			return
		}
		views = NewViews(items, id.Role)
		if err := h.Cache.Set(r.Context(), cache.ScopeBookings, owner, views); err != nil {
			h.Log.Warn("booking list cache write failed", zap.Error(err), zap.String("user_id", id.UserID))
		}
	}

	api.WriteJSON(w, http.StatusOK, ListResponse{Envelope: api.OK("bookings loaded"), Items: views})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	bookingID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	b, err := h.Store.GetForUser(r.Context(), bookingID, id.UserID, id.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, Response{Envelope: api.OK("booking loaded"), Booking: NewView(*b, id.Role)})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	bookingID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	b, err := h.Store.GetForUser(r.Context(), bookingID, id.UserID, id.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items, err := h.Store.Events(r.Context(), b.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, EventsResponse{Envelope: api.OK("events loaded"), Items: items})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	bookingID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	var req CancelRequest
	if err := h.Validator.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.Store.Cancel(r.Context(), bookingID, id.UserID, id.Role, strings.TrimSpace(req.Reason))
	if err != nil {
		metrics.IncStatusAction("booking", "cancel", outcome(err))
		h.writeError(w, err)
		return
	}
	metrics.IncStatusAction("booking", "cancel", metrics.OutcomeOK)

	h.invalidate(r.Context(), cache.Owner(b.CustomerID, status.RoleCustomer), cache.Owner(b.WorkerID, status.RoleWorker))
	h.Log.Info("booking canceled",
		zap.String("booking_id", b.ID),
		zap.String("role", string(id.Role)),
		zap.Int("status", int(b.Status)),
	)

	api.WriteJSON(w, http.StatusOK, Response{Envelope: api.OK("booking canceled"), Booking: NewView(*b, id.Role)})
}

func (h Handlers) Review(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	bookingID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	var req ReviewRequest
	if err := h.Validator.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := h.Store.AddReview(r.Context(), bookingID, id.UserID, id.Role, req.Rating, req.Comment)
	if err != nil {
		metrics.IncStatusAction("booking", "review", outcome(err))
		h.writeError(w, err)
		return
	}
	metrics.IncStatusAction("booking", "review", metrics.OutcomeOK)

	api.WriteJSON(w, http.StatusCreated, ReviewResponse{Envelope: api.OK("review added"), Review: *rev})
}

func (h Handlers) invalidate(ctx context.Context, owners ...string) {
	if err := h.Cache.Invalidate(ctx, cache.ScopeBookings, owners...); err != nil {
		h.Log.Warn("booking list cache invalidate failed", zap.Error(err))
	}
}

func (h Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotCancelable), errors.Is(err, ErrNotReviewable), errors.Is(err, ErrAlreadyReviewed):
		api.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error("booking request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "")
	}
}

func outcome(err error) string {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotCancelable) ||
		errors.Is(err, ErrNotReviewable) || errors.Is(err, ErrAlreadyReviewed) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
