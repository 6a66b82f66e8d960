package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/service"
)

const internalMessage = "internal error"

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrWrongPassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrProtectedUser):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under event and converts it into the HTTP error the client sees.
// Anything unclassified becomes a 500 with a generic message.
func fail(l *slog.Logger, event string, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
		return echo.NewHTTPError(status, internalMessage)
	}

	msg := service.Message(err)
	if msg == "" {
		switch status {
		case http.StatusUnauthorized:
			msg = "invalid email or password"
		case http.StatusForbidden:
			msg = "forbidden"
		case http.StatusNotFound:
			msg = "not found"
		default:
			msg = http.StatusText(status)
		}
	}
	l.Warn(event, "status", status, "reason", msg)
	return echo.NewHTTPError(status, msg)
}

// errorHandler renders bare errors as a generic 500 instead of echo's default text.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			err = echo.NewHTTPError(http.StatusInternalServerError, internalMessage).SetInternal(err)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
