package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFieldsMissing means the workspace does not define the custom fields
// this service depends on. That is a setup problem, so it aborts the run.
var ErrFieldsMissing = errors.New("required custom fields missing")

// APIError is a non-2xx response from the Asana API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asana api error (status %d): %s", e.StatusCode, e.Message)
}

// IsPermissionError reports whether err is an API response indicating the
// caller cannot see or touch the referenced resource.
func IsPermissionError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound
}

// IsRenderRejection reports whether err is the backend refusing a rich-notes
// payload. The caller retries the same update with plaintext notes.
func IsRenderRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest
}
