// Package apierr attaches an HTTP status and a stable machine code to
// errors crossing the service boundary. Services return *Error for
// anything a handler should translate (missing tickets, invalid chunk
// requests, graph or model outages); the response envelope unwraps it and
// everything else defaults to a 500.
package apierr

import "fmt"

// Error pairs the cause with the status and code the HTTP layer should
// surface. Code lands in the JSON body so clients can branch without
// parsing messages.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

// Unwrap keeps the cause visible to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
