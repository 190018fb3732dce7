package errors

import "net/http"

var ErrOptimisticLock = &Exception{
	Kind:       KindConflict,
	Message:    "task was modified concurrently, retry the request",
	StatusCode: http.StatusConflict,
}
