package errors

import (
	"errors"
	"net/http"
)

// Kinds are the machine-checkable error categories exposed to API callers.
const (
	KindValidation           = "validation_error"
	KindNotFound             = "not_found"
	KindForbidden            = "forbidden"
	KindVerificationRequired = "verification_required"
	KindChallenge            = "challenge_error"
	KindConflict             = "conflict"
	KindDependencyFailure    = "dependency_failure"
)

type Exception struct {
	Kind       string
	Reason     string
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

// Is matches on Kind, and on Reason when the target carries one, so that
// errors.Is(err, ErrValidation) holds for every validation failure.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// As unwraps err into an *Exception, falling back to ErrDependencyFailure so
// that unknown causes never reach the caller.
func As(err error) *Exception {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrDependencyFailure
}
