package meta

import (
	"errors"
	"fmt"
)

// APIError is a structured failure returned by the ad platform. The platform
// message and subcode are preserved for diagnostics; UserMessage, when
// present, is safe to show to an operator.
type APIError struct {
	Operation   string
	Message     string
	Type        string
	Code        int
	Subcode     int
	UserMessage string
	HTTPStatus  int
}

func (e *APIError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("%s: %s (code %d, subcode %d)", e.Operation, e.Message, e.Code, e.Subcode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (code %d)", e.Operation, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// AsAPIError unwraps err to an *APIError when the failure originated from a
// platform error envelope.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
