package model

import "net/http"

// RequestError identifies a class of request failure. Each kind owns
// its HTTP status code so handlers map outcomes uniformly.
type RequestError string

// Request error kinds
const (
	// RequestErrInvalidID means the path id is not a well-formed
	// record identifier.
	RequestErrInvalidID RequestError = "invalid_identifier"

	// RequestErrMissingField means a required payload field is
	// absent or empty.
	RequestErrMissingField RequestError = "missing_field"

	// RequestErrInvalidPayload means the request body could not be
	// decoded.
	RequestErrInvalidPayload RequestError = "invalid_payload"

	// RequestErrUnauthorized means the bearer token is missing,
	// malformed, or failed verification.
	RequestErrUnauthorized RequestError = "unauthorized"

	// RequestErrNotFound means the id is well-formed but matches
	// no record.
	RequestErrNotFound RequestError = "not_found"

	// RequestErrStorage means an unexpected storage error.
	RequestErrStorage RequestError = "storage_failure"
)

func (e RequestError) Error() string {
	return string(e)
}

// StatusCode returns the HTTP status code for the error kind.
func (e RequestError) StatusCode() int {
	switch e {
	case RequestErrInvalidID, RequestErrMissingField, RequestErrInvalidPayload:
		return http.StatusBadRequest
	case RequestErrUnauthorized:
		return http.StatusUnauthorized
	case RequestErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Description returns a human-readable description of the error,
// optionally elaborated with details.
func (e RequestError) Description(details string) string {
	var desc string
	switch e {
	case RequestErrInvalidID:
		desc = "malformed id"
	case RequestErrMissingField:
		desc = "missing required field"
	case RequestErrInvalidPayload:
		desc = "invalid request payload"
	case RequestErrUnauthorized:
		desc = "token missing or invalid"
	case RequestErrNotFound:
		desc = "no matching record"
	default:
		desc = "an unexpected error occurred"
	}
	if details != "" {
		desc += ": " + details
	}
	return desc
}
