package model

// ErrorResponse is the JSON error body returned by the backend for non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
