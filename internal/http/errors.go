package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ErrorHandler renders every failure as {"error", "reason", "message"}.
// Anything that is not a known exception is logged and reported as a
// dependency failure.
func ErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := describeError(err)
		if status == http.StatusInternalServerError {
			logger.WithContext(c.Request().Context()).WithError(err).WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).Error("http: request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.WithError(err).Warn("http: failed to write error response")
		}
	}
}

func describeError(err error) (int, errorBody) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, errorBody{
			Error:   httpErrorKind(httpErr.Code),
			Message: fmt.Sprint(httpErr.Message),
		}
	}

	appErr := apperrors.As(err)
	return appErr.StatusCode, errorBody{
		Error:   appErr.Kind,
		Reason:  appErr.Reason,
		Message: appErr.Message,
	}
}

func httpErrorKind(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusNotFound:
		return apperrors.KindNotFound
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusBadRequest:
		return apperrors.KindValidation
	default:
		if code >= http.StatusInternalServerError {
			return apperrors.KindDependencyFailure
		}
		return "request_error"
	}
}
