package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrProtectedUser      = errors.New("protected user")      // 403
	ErrNotFound           = errors.New("not found")           // 404
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidTransition  = errors.New("invalid transition")  // 409
	ErrWrongPassword      = errors.New("wrong password")      // 400
)

// Error carries a client-safe message next to one of the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return newErr(ErrValidation, format, args...)
}

func notFound(what string) error {
	return newErr(ErrNotFound, "%s not found", what)
}

// Message returns the client-facing text of a service error, or "" for anything else.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Msg
	}
	return ""
}
