package billfetch

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"

	// ECREDENTIALS means the portal kept showing the login form after the
	// credentials were submitted.
	ECREDENTIALS = "credentials_rejected"

	// ESECONDFACTOR means the portal is waiting for a one-time code.
	ESECONDFACTOR = "second_factor_required"

	// ESECONDFACTORREJECTED means a submitted one-time code was not accepted.
	ESECONDFACTORREJECTED = "second_factor_rejected"

	// EUNREACHABLE means the portal domain could not be reached (DNS,
	// connectivity). It is reported separately so it is not mistaken for bad
	// credentials.
	EUNREACHABLE = "network_unreachable"

	// ENAVIGATION means the invoice area could not be reached after
	// exhausting every known path.
	ENAVIGATION = "navigation_failed"

	// EVERIFY means fetched bytes did not look like the expected document.
	EVERIFY = "verification_failed"

	// ETIMEOUT means a run exceeded its time budget.
	ETIMEOUT = "timeout"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("billfetch error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error."
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}
