package bid

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/pkg/status"
)

var (
	ErrNotFound      = errors.New("bid not found")
	ErrOfferNotFound = errors.New("offer not found")
	ErrNotCancelable = errors.New("bid can no longer be canceled")
	ErrOffersClosed  = errors.New("bid is no longer accepting offers")
	ErrCustomerOnly  = errors.New("only customers manage bids")
)

type Bid struct {
	ID           string           `json:"id"`
	CustomerID   string           `json:"customerId"`
	ServiceName  string           `json:"serviceName"`
	Description  string           `json:"description"`
	Address      string           `json:"address"`
	Budget       decimal.Decimal  `json:"budget"`
	Status       status.BidStatus `json:"status"`
	CancelReason string           `json:"cancelReason,omitempty"`
	OfferCount   int              `json:"offerCount"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

type View struct {
	Bid

	StatusName string            `json:"statusName"`
	Label      string            `json:"label"`
	Badge      status.Badge      `json:"badge"`
	Actions    status.BidActions `json:"actions"`
}

func NewView(b Bid) View {
	return View{
		Bid:        b,
		StatusName: b.Status.String(),
		Label:      b.Status.Label(),
		Badge:      b.Status.Badge(),
		Actions:    status.BidActionsFor(b.Status),
	}
}

func NewViews(items []Bid) []View {
	out := make([]View, 0, len(items))
	for _, b := range items {
		out = append(out, NewView(b))
	}
	return out
}

type Offer struct {
	ID         string          `json:"id"`
	BidID      string          `json:"bidId"`
	WorkerID   string          `json:"workerId"`
	WorkerName string          `json:"workerName"`
	Price      decimal.Decimal `json:"price"`
	Message    string          `json:"message"`
	Accepted   bool            `json:"accepted"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Acceptance is the result of accepting an offer.
type Acceptance struct {
	Bid       Bid    `json:"bid"`
	BookingID string `json:"bookingId"`
	WorkerID  string `json:"workerId"`
}
