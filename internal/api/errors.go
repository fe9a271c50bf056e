package api

import (
	"encoding/json"
	"net/http"
)

// GenericErrorMessage is shown when the server has nothing more specific to say.
const GenericErrorMessage = "Something went wrong, please try again"

// Envelope is embedded in every response body.
type Envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func OK(message string) Envelope {
	return Envelope{Message: message}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = GenericErrorMessage
	}
	WriteJSON(w, status, Envelope{Error: true, Message: message})
}
