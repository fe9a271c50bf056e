package httpapi

import (
	"net/http"

	"marketplace/internal/api"
	"marketplace/pkg/status"
)

type StatusEntry struct {
	Code  int          `json:"code"`
	Name  string       `json:"name"`
	Label string       `json:"label"`
	Badge status.Badge `json:"badge"`
}

type StatusesResponse struct {
	api.Envelope
	Bookings []StatusEntry `json:"bookings"`
	Bids     []StatusEntry `json:"bids"`
}

func statusVocabulary() StatusesResponse {
	resp := StatusesResponse{Envelope: api.OK("statuses loaded")}
	for _, s := range status.BookingStatuses() {
		resp.Bookings = append(resp.Bookings, StatusEntry{Code: int(s), Name: s.String(), Label: s.Label(), Badge: s.Badge()})
	}
	for _, s := range status.BidStatuses() {
		resp.Bids = append(resp.Bids, StatusEntry{Code: int(s), Name: s.String(), Label: s.Label(), Badge: s.Badge()})
	}
	return resp
}

func statuses(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, statusVocabulary())
}
