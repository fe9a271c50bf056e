package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"marketplace/pkg/status"
)

type Booking struct {
	ID           string                `json:"id"`
	CustomerID   string                `json:"customerId"`
	WorkerID     string                `json:"workerId"`
	BidID        *string               `json:"bidId,omitempty"`
	OfferID      *string               `json:"offerId,omitempty"`
	ServiceName  string                `json:"serviceName"`
	Address      string                `json:"address"`
	Price        decimal.Decimal       `json:"price"`
	ScheduledAt  *time.Time            `json:"scheduledAt,omitempty"`
	Status       status.BookingStatus  `json:"status"`
	StatusName   string                `json:"statusName"`
	Label        string                `json:"label"`
	Badge        status.Badge          `json:"badge"`
	Actions      status.BookingActions `json:"actions"`
	CancelReason string                `json:"cancelReason,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

type Bid struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customerId"`
	ServiceName  string            `json:"serviceName"`
	Description  string            `json:"description"`
	Address      string            `json:"address"`
	Budget       decimal.Decimal   `json:"budget"`
	Status       status.BidStatus  `json:"status"`
	StatusName   string            `json:"statusName"`
	Label        string            `json:"label"`
	Badge        status.Badge      `json:"badge"`
	Actions      status.BidActions `json:"actions"`
	CancelReason string            `json:"cancelReason,omitempty"`
	OfferCount   int               `json:"offerCount"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
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

type Review struct {
	ID        string    `json:"id"`
	BookingID string    `json:"bookingId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type StatusEvent struct {
	ID         string    `json:"id"`
	EntityKind string    `json:"entityKind"`
	EntityID   string    `json:"entityId"`
	FromStatus int       `json:"fromStatus"`
	ToStatus   int       `json:"toStatus"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type StatusEntry struct {
	Code  int          `json:"code"`
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Badge status.Badge `json:"badge"`
}

type Statuses struct {
	Bookings []StatusEntry `json:"bookings"`
	Bids     []StatusEntry `json:"bids"`
}

type Acceptance struct {
	Bid       Bid    `json:"bid"`
	BookingID string `json:"bookingId"`
}
