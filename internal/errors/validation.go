package errors

import "net/http"

var ErrValidation = &Exception{
	Kind:       KindValidation,
	Message:    "invalid request",
	StatusCode: http.StatusBadRequest,
}

func Validation(message string) *Exception {
	return &Exception{
		Kind:       KindValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}
