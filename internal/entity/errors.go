package entity

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrNotFound     = errors.New("signal not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrConflict     = errors.New("signal was modified concurrently")
	ErrInvalidInput = errors.New("invalid input")
)

// IOError reports that the backing store could not be read or written.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError wraps err as a storage failure of operation op.
func NewIOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}

// ExternalPostError reports that the chat platform rejected a send, edit or delete.
type ExternalPostError struct {
	Op  string
	Err error
}

func (e *ExternalPostError) Error() string {
	return fmt.Sprintf("chat %s: %v", e.Op, e.Err)
}

func (e *ExternalPostError) Unwrap() error { return e.Err }

// NewExternalPostError wraps err as a chat platform failure of operation op.
func NewExternalPostError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalPostError{Op: op, Err: err}
}

// InvalidInputError carries the detail of a rejected operator input.
// It matches ErrInvalidInput with errors.Is.
type InvalidInputError struct {
	Detail string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Detail
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput builds an InvalidInputError from a format string.
func InvalidInput(format string, args ...interface{}) error {
	return &InvalidInputError{Detail: fmt.Sprintf(format, args...)}
}

const notAuthorizedMessage = "⛔ Not authorized."

// UserMessage maps an action failure to the short notice shown to the operator.
func UserMessage(err error) string {
	var (
		inputErr *InvalidInputError
		ioErr    *IOError
		postErr  *ExternalPostError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return notAuthorizedMessage
	case errors.Is(err, ErrNotFound):
		return "❓ Signal not found."
	case errors.Is(err, ErrConflict):
		return "⚠️ Signal changed concurrently, try again."
	case errors.As(err, &inputErr):
		return "⚠️ Invalid input: " + inputErr.Detail
	case errors.Is(err, ErrInvalidInput):
		return "⚠️ Invalid input."
	case errors.As(err, &ioErr):
		return "💾 Storage error, action aborted."
	case errors.As(err, &postErr):
		return "📡 Saved, but the chat message could not be updated."
	default:
		return "⚠️ Action failed."
	}
}
