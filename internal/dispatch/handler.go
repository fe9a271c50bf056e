package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
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

const maxBodyBytes = 64 << 10

type Applier interface {
	Apply(ctx context.Context, p Push) (*Result, error)
}

type Handler struct {
	Secret    string
	Store     Applier
	Cache     cache.ListCache
	Validator *api.Validator
	Log       *logger.Zap
}

type Request struct {
	Kind   string `json:"kind" validate:"required,oneof=booking bid"`
	ID     string `json:"id" validate:"required,uuid"`
	Status int    `json:"status" validate:"required"`
}

type Response struct {
	api.Envelope
	Kind   events.Kind  `json:"kind"`
	ID     string       `json:"id"`
	Status int          `json:"status"`
	Label  string       `json:"label"`
	Badge  status.Badge `json:"badge"`
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if !Verify(body, strings.TrimSpace(r.Header.Get(HeaderSignature)), h.Secret) {
		api.WriteError(w, http.StatusUnauthorized, "invalid dispatch signature")
		return
	}

	var req Request
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err := h.Validator.Decode(r, &req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	push := Push{
		Kind:        events.Kind(req.Kind),
		ID:          req.ID,
		Status:      req.Status,
		EventID:     strings.TrimSpace(r.Header.Get(HeaderEventID)),
		PayloadHash: sha256Hex(body),
	}

	res, err := h.Store.Apply(r.Context(), push)
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicate):
		metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeRejected)
		api.WriteJSON(w, http.StatusOK, api.OK("push already applied"))
		return
	case errors.Is(err, ErrEventConflict):
		metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeRejected)
		h.Log.Warn("dispatch event id reused", zap.String("event_id", push.EventID), zap.String("id", req.ID))
		api.WriteError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, status.ErrUnknownStatus):
		metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeRejected)
		api.WriteError(w, http.StatusBadRequest, "unknown status")
		return
	case errors.Is(err, ErrNotFound):
		metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeRejected)
		api.WriteError(w, http.StatusNotFound, err.Error())
		return
	default:
		metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeError)
		h.Log.Error("dispatch push failed", zap.Error(err), zap.String("kind", req.Kind), zap.String("id", req.ID))
		api.WriteError(w, http.StatusInternalServerError, "")
		return
	}
	metrics.IncStatusAction(req.Kind, "dispatch", metrics.OutcomeOK)

	scope := cache.ScopeBookings
	if res.Kind == events.KindBid {
		scope = cache.ScopeBids
	}
	owners := []string{cache.Owner(res.CustomerID, status.RoleCustomer)}
	if res.WorkerID != "" {
		owners = append(owners, cache.Owner(res.WorkerID, status.RoleWorker))
	}
	if err := h.Cache.Invalidate(r.Context(), scope, owners...); err != nil {
		h.Log.Warn("list cache invalidate failed", zap.Error(err), zap.String("scope", scope))
	}

	h.Log.Info("dispatch status applied",
		zap.String("kind", string(res.Kind)),
		zap.String("id", res.ID),
		zap.Int("status", res.Status),
		zap.String("event_id", push.EventID),
	)

	api.WriteJSON(w, http.StatusOK, Response{
		Envelope: api.OK("status applied"),
		Kind:     res.Kind,
		ID:       res.ID,
		Status:   res.Status,
		Label:    res.Label,
		Badge:    res.Badge,
	})
}
