package bid

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"marketplace/internal/api"
	"marketplace/internal/auth"
	"marketplace/internal/cache"
	"marketplace/internal/metrics"
	"marketplace/pkg/logger"
	"marketplace/pkg/status"
)

type Store interface {
	ListForCustomer(ctx context.Context, customerID string) ([]Bid, error)
	GetForCustomer(ctx context.Context, id, customerID string) (*Bid, error)
	Cancel(ctx context.Context, id, customerID, reason string) (*Bid, error)
	ListOffers(ctx context.Context, id, customerID string) ([]Offer, error)
	AcceptOffer(ctx context.Context, id, offerID, customerID string) (*Acceptance, error)
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
	Bid View `json:"bid"`
}

type OffersResponse struct {
	api.Envelope
	Items []Offer `json:"items"`
}

type AcceptResponse struct {
	api.Envelope
	Bid       View   `json:"bid"`
	BookingID string `json:"bookingId"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=500"`
}

func customer(w http.ResponseWriter, r *http.Request) *auth.Identity {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "missing identity")
		return nil
	}
	if id.Role != status.RoleCustomer {
		api.WriteError(w, http.StatusForbidden, ErrCustomerOnly.Error())
		return nil
	}
	return id
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	id := customer(w, r)
	if id == nil {
		return
	}

	owner := cache.Owner(id.UserID, id.Role)
	var views []View
	hit, err := h.Cache.Get(r.Context(), cache.ScopeBids, owner, &views)
	if err != nil {
		h.Log.Warn("bid list cache read failed", zap.Error(err), zap.String("user_id", id.UserID))
	}
	if !hit {
		items, err := h.Store.ListForCustomer(r.Context(), id.UserID)
		if err != nil {
			h.Log.Error("list bids failed", zap.Error(err), zap.String("user_id", id.UserID))
			api.WriteError(w, http.StatusInternalServerError, "")
			return
		}
		views = NewViews(items)
		if err := h.Cache.Set(r.Context(), cache.ScopeBids, owner, views); err != nil {
			h.Log.Warn("bid list cache write failed", zap.Error(err), zap.String("user_id", id.UserID))
		}
	}

	api.WriteJSON(w, http.StatusOK, ListResponse{Envelope: api.OK("bids loaded"), Items: views})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	id := customer(w, r)
	if id == nil {
		return
	}

	bidID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	b, err := h.Store.GetForCustomer(r.Context(), bidID, id.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, Response{Envelope: api.OK("bid loaded"), Bid: NewView(*b)})
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	id := customer(w, r)
	if id == nil {
		return
	}

	bidID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	var req CancelRequest
	if err := h.Validator.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.Store.Cancel(r.Context(), bidID, id.UserID, strings.TrimSpace(req.Reason))
	if err != nil {
		metrics.IncStatusAction("bid", "cancel", outcome(err))
		h.writeError(w, err)
		return
	}
	metrics.IncStatusAction("bid", "cancel", metrics.OutcomeOK)

	h.invalidate(r.Context(), cache.ScopeBids, cache.Owner(b.CustomerID, status.RoleCustomer))
	h.Log.Info("bid canceled", zap.String("bid_id", b.ID))

	api.WriteJSON(w, http.StatusOK, Response{Envelope: api.OK("bid canceled"), Bid: NewView(*b)})
}

func (h Handlers) Offers(w http.ResponseWriter, r *http.Request) {
	id := customer(w, r)
	if id == nil {
		return
	}

	bidID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}

	items, err := h.Store.ListOffers(r.Context(), bidID, id.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, OffersResponse{Envelope: api.OK("offers loaded"), Items: items})
}

func (h Handlers) Accept(w http.ResponseWriter, r *http.Request) {
	id := customer(w, r)
	if id == nil {
		return
	}

	bidID, ok := api.PathUUID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrNotFound.Error())
		return
	}
	offerID, ok := api.PathUUID(r, "offerId")
	if !ok {
		api.WriteError(w, http.StatusNotFound, ErrOfferNotFound.Error())
		return
	}

	res, err := h.Store.AcceptOffer(r.Context(), bidID, offerID, id.UserID)
	if err != nil {
		metrics.IncStatusAction("bid", "accept", outcome(err))
		h.writeError(w, err)
		return
	}
	metrics.IncStatusAction("bid", "accept", metrics.OutcomeOK)

	h.invalidate(r.Context(), cache.ScopeBids, cache.Owner(res.Bid.CustomerID, status.RoleCustomer))
	h.invalidate(r.Context(), cache.ScopeBookings,
		cache.Owner(res.Bid.CustomerID, status.RoleCustomer),
		cache.Owner(res.WorkerID, status.RoleWorker),
	)
	h.Log.Info("offer accepted",
		zap.String("bid_id", res.Bid.ID),
		zap.String("booking_id", res.BookingID),
	)

	api.WriteJSON(w, http.StatusOK, AcceptResponse{
		Envelope:  api.OK("offer accepted"),
		Bid:       NewView(res.Bid),
		BookingID: res.BookingID,
	})
}

func (h Handlers) invalidate(ctx context.Context, scope string, owners ...string) {
	if err := h.Cache.Invalidate(ctx, scope, owners...); err != nil {
		h.Log.Warn("list cache invalidate failed", zap.Error(err), zap.String("scope", scope))
	}
}

func (h Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOfferNotFound):
		api.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotCancelable), errors.Is(err, ErrOffersClosed):
		api.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error("bid request failed", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "")
	}
}

func outcome(err error) string {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrNotCancelable) || errors.Is(err, ErrOffersClosed) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
