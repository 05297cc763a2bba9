package errs

import (
	"errors"
	"fmt"
)

// Error kinds used across services. Handlers map them to HTTP codes with
// errors.Is; the conversation engine turns the recoverable ones into
// user-facing text and never lets them escape.
var (
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("not configured")
	ErrNotFound          = errors.New("not found")
	ErrProtocol          = errors.New("protocol error")
	ErrTransientExternal = errors.New("external call failed")
)

// kindError keeps the client-facing message clean (no kind prefix) while
// still matching its kind through errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func Validation(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func Configuration(what string) error {
	return &kindError{kind: ErrConfiguration, msg: what + " not configured"}
}

func NotFound(what string) error {
	return &kindError{kind: ErrNotFound, msg: what + " not found"}
}

func Protocol(format string, args ...any) error {
	return &kindError{kind: ErrProtocol, msg: fmt.Sprintf(format, args...)}
}

func Transient(op string, err error) error {
	return &kindError{kind: ErrTransientExternal, msg: fmt.Sprintf("%s: %v", op, err)}
}
