package service

import "net/http"

// StatusError carries the HTTP status a route should answer with. The
// taxonomy: 400 malformed input, 409 stock conflict, 503 validation
// outage; anything else surfaces as a plain 500.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func badRequest(msg string) *StatusError {
	return &StatusError{Code: http.StatusBadRequest, Message: msg}
}

func conflict(msg string) *StatusError {
	return &StatusError{Code: http.StatusConflict, Message: msg}
}

func unavailable(msg string) *StatusError {
	return &StatusError{Code: http.StatusServiceUnavailable, Message: msg}
}
