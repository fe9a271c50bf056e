package marketplace

import (
	"context"
	"net/http"
	"strings"
)

func (c Client) ListBids(ctx context.Context) ([]Bid, error) {
	var resp struct {
		Items []Bid `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bids", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c Client) GetBid(ctx context.Context, id string) (*Bid, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	var resp struct {
		Bid Bid `json:"bid"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bids/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Bid, nil
}

func (c Client) CancelBid(ctx context.Context, id, reason string) (*Bid, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	var resp struct {
		Bid Bid `json:"bid"`
	}
	body := map[string]string{"reason": strings.TrimSpace(reason)}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/bids/"+escape(id)+"/cancel", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Bid, nil
}

func (c Client) ListOffers(ctx context.Context, bidID string) ([]Offer, error) {
	if strings.TrimSpace(bidID) == "" {
		return nil, ErrMissingID
	}
	var resp struct {
		Items []Offer `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/bids/"+escape(bidID)+"/offers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c Client) AcceptOffer(ctx context.Context, bidID, offerID string) (*Acceptance, error) {
	if strings.TrimSpace(bidID) == "" || strings.TrimSpace(offerID) == "" {
		return nil, ErrMissingID
	}
	var resp Acceptance
	path := "/v1/bids/" + escape(bidID) + "/offers/" + escape(offerID) + "/accept"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c Client) Statuses(ctx context.Context) (*Statuses, error) {
	var resp Statuses
	if err := c.doJSON(ctx, http.MethodGet, "/v1/statuses", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
