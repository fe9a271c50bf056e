package booking

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/pkg/status"
)

var (
	ErrNotFound        = errors.New("booking not found")
	ErrNotCancelable   = errors.New("booking can no longer be canceled")
	ErrNotReviewable   = errors.New("booking cannot be reviewed")
	ErrAlreadyReviewed = errors.New("booking already reviewed")
)

type Booking struct {
	ID           string               `json:"id"`
	CustomerID   string               `json:"customerId"`
	WorkerID     string               `json:"workerId"`
	BidID        *string              `json:"bidId,omitempty"`
	OfferID      *string              `json:"offerId,omitempty"`
	ServiceName  string               `json:"serviceName"`
	Address      string               `json:"address"`
	Price        decimal.Decimal      `json:"price"`
	ScheduledAt  *time.Time           `json:"scheduledAt,omitempty"`
	Status       status.BookingStatus `json:"status"`
	CancelReason string               `json:"cancelReason,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// View is a booking as rendered for one caller.
type View struct {
	Booking

	StatusName string                `json:"statusName"`
	Label      string                `json:"label"`
	Badge      status.Badge          `json:"badge"`
	Actions    status.BookingActions `json:"actions"`
}

func NewView(b Booking, role status.Role) View {
	return View{
		Booking:    b,
		StatusName: b.Status.String(),
		Label:      b.Status.Label(),
		Badge:      b.Status.Badge(),
		Actions:    status.BookingActionsFor(b.Status, role),
	}
}

func NewViews(items []Booking, role status.Role) []View {
	out := make([]View, 0, len(items))
	for _, b := range items {
		out = append(out, NewView(b, role))
	}
	return out
}

type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// New is the input for a booking created from an accepted offer.
type New struct {
	CustomerID  string
	WorkerID    string
	BidID       string
	OfferID     string
	ServiceName string
	Address     string
	Price       decimal.Decimal
}
