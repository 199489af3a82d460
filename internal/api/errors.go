package api

import (
	"errors"
	"fmt"
)

// ErrorCodeVersionConflict is the wire error_code the server emits when an
// update or delete carries a stale expected version. Part of the numeric
// registry (1000s validation, 2000s domain, 3000s auth, 4000s internal).
const ErrorCodeVersionConflict = 2101

// APIError is the client-side form of the server's JSON error envelope.
// ErrorCode holds the numeric registry value so callers can branch on the
// failure without matching message strings.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Status > 0:
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// IsVersionConflict reports whether err is a version-conflict response from
// the API. Callers typically re-fetch the record and retry.
func IsVersionConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == ErrorCodeVersionConflict
}
