package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

const maxErrorDetails = 512

// ServerError is a response that arrived with a non-2xx status.
type ServerError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, msg)
}

// Retryable reports whether the status is a 5xx.
func (e *ServerError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

// NetworkError is a failure where no response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnknownError covers everything else, e.g. a body that cannot be encoded or decoded.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

func newServerError(status int, body []byte) *ServerError {
	se := &ServerError{Status: status}

	var resp model.ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		se.Code = resp.Code
		se.Message = resp.Error
		se.Details = resp.Details
		return se
	}

	if len(body) > maxErrorDetails {
		// cut on a rune boundary
		cut := maxErrorDetails
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	se.Details = string(body)
	return se
}

// IsRetryable reports whether err is a transport failure worth retrying.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.Retryable()
	}
	return false
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var srvErr *ServerError
	return errors.As(err, &srvErr) && srvErr.Status == http.StatusNotFound
}
