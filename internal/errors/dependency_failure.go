package errors

import "net/http"

var ErrDependencyFailure = &Exception{
	Kind:       KindDependencyFailure,
	Message:    "internal error, please retry later",
	StatusCode: http.StatusInternalServerError,
}
