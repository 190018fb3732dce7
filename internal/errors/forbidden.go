package errors

import "net/http"

var ErrForbidden = &Exception{
	Kind:       KindForbidden,
	Message:    "you do not have access to this task",
	StatusCode: http.StatusForbidden,
}
