package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the job-board backend.
type Error struct {
	StatusCode int
	Message    string
	Route      string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Route, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Route, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }

func IsForbidden(err error) bool { return StatusCode(err) == http.StatusForbidden }

func IsNotFound(err error) bool { return StatusCode(err) == http.StatusNotFound }

// UserMessage turns err into text fit for an alert. Authorization failures get
// a specific message, forbidden and not-found responses surface the server's
// own message when it sent one, everything else falls back.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return "login required"
	case http.StatusForbidden:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "not permitted"
	case http.StatusNotFound:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "not found"
	default:
		return fallback
	}
}
