package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoBaseURL means the external API address was never configured. The
// failure is surfaced before any network call.
var ErrNoBaseURL = errors.New("API base URL is missing; set api.base_url or ATLAS_API_BASE_URL")

// ErrNoCredentials means no session token is available locally. Also checked
// before the network is touched.
var ErrNoCredentials = errors.New("authentication credentials were not provided")

// HTTPError represents a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with
// the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// newHTTPError extracts the most human-readable message the body offers:
// a bare string body, then a detail field, then a message field, then the
// status text.
func newHTTPError(status int, body []byte) *HTTPError {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return &HTTPError{StatusCode: status, Message: http.StatusText(status)}
	}

	var asString string
	if json.Unmarshal(body, &asString) == nil && asString != "" {
		return &HTTPError{StatusCode: status, Message: asString}
	}

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Detail != "":
			return &HTTPError{StatusCode: status, Message: payload.Detail}
		case payload.Message != "":
			return &HTTPError{StatusCode: status, Message: payload.Message}
		case payload.Error != "":
			return &HTTPError{StatusCode: status, Message: payload.Error}
		}
	}

	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return &HTTPError{StatusCode: status, Message: trimmed}
	}
	return &HTTPError{StatusCode: status, Message: http.StatusText(status)}
}
