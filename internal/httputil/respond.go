// Package httputil provides shared helpers for writing JSON responses
// and common HTTP middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/model"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// WriteJSON writes data as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}

// WriteError writes the JSON error body for a request error kind,
// using the status code the kind maps to.
func WriteError(w http.ResponseWriter, reqErr model.RequestError, details string) {
	if reqErr == model.RequestErrUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, reqErr.StatusCode(), errorResponse{
		Error:            string(reqErr),
		ErrorDescription: reqErr.Description(details),
	})
}
