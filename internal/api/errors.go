package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/binhbb2204/bookhub/internal/validate"
)

// ErrNetwork means no response was received.
var ErrNetwork = errors.New("Network error. Please check your connection.")

// ErrInvalidResponse means a 2xx body did not carry what the endpoint promises.
var ErrInvalidResponse = errors.New("Invalid response from server")

// Error is a 4xx/5xx response. Message and Details come from the error body.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Details != "" {
		return e.Details
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Message normalizes err to the string shown in an error banner.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Details != "" {
			return apiErr.Details
		}
		if text := http.StatusText(apiErr.StatusCode); text != "" {
			return text
		}
		return fallback
	}
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	if errors.Is(err, ErrNetwork) {
		return ErrNetwork.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return StatusCode(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusCode(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return StatusCode(err) == http.StatusNotFound }
func IsConflict(err error) bool     { return StatusCode(err) == http.StatusConflict }
