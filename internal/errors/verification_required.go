package errors

import "net/http"

var ErrVerificationRequired = &Exception{
	Kind:       KindVerificationRequired,
	Message:    "customer email must be verified before the task can be created",
	StatusCode: http.StatusPreconditionRequired,
}
