package marketplace

import (
	"context"
	"net/http"
	"strings"
)

func (c Client) ListBookings(ctx context.Context) ([]Booking, error) {
	var resp struct {
		Items []Booking `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bookings", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	var resp struct {
		Booking Booking `json:"booking"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bookings/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Booking, nil
}

func (c Client) BookingEvents(ctx context.Context, id string) ([]StatusEvent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	var resp struct {
		Items []StatusEvent `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bookings/"+escape(id)+"/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CancelBooking requires a non-blank reason before anything is sent.
func (c Client) CancelBooking(ctx context.Context, id, reason string) (*Booking, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	var resp struct {
		Booking Booking `json:"booking"`
	}
	body := map[string]string{"reason": strings.TrimSpace(reason)}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/bookings/"+escape(id)+"/cancel", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Booking, nil
}

func (c Client) AddReview(ctx context.Context, id string, rating int, comment string) (*Review, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	var resp struct {
		Review Review `json:"review"`
	}
	body := map[string]any{"rating": rating, "comment": comment}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/bookings/"+escape(id)+"/review", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Review, nil
}
