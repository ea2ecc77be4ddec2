package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/organizer/internal/filter"
	"github.com/roach88/organizer/internal/item"
)

// ErrorCode categorizes request errors.
type ErrorCode int

const (
	NoError ErrorCode = iota
	// InvalidArgument: malformed parameters, e.g. a range with start after end.
	InvalidArgument
	// NotSupported: the engine lacks the requested capability.
	NotSupported
	PermissionDenied
	BackendUnavailable
	// CodeCanceled: the request was canceled. Not a failure of the operation.
	CodeCanceled
	// Timeout: WaitForFinished/Wait gave up. Never the operation's own error.
	Timeout
	// DoesNotExist: a referenced item is not in the backend.
	DoesNotExist
	// LimitReached: the backend refused to produce more results.
	LimitReached
	Unknown
)

// String returns the code name.
func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "none"
	case InvalidArgument:
		return "invalid_argument"
	case NotSupported:
		return "not_supported"
	case PermissionDenied:
		return "permission_denied"
	case BackendUnavailable:
		return "backend_unavailable"
	case CodeCanceled:
		return "canceled"
	case Timeout:
		return "timeout"
	case DoesNotExist:
		return "does_not_exist"
	case LimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// Error is the error recorded on a request.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return e.Code.String()
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrDoesNotExist)
// works for every message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidArgument    = &Error{Code: InvalidArgument}
	ErrNotSupported       = &Error{Code: NotSupported}
	ErrPermissionDenied   = &Error{Code: PermissionDenied}
	ErrBackendUnavailable = &Error{Code: BackendUnavailable}
	ErrCanceled           = &Error{Code: CodeCanceled}
	ErrTimeout            = &Error{Code: Timeout}
	ErrDoesNotExist       = &Error{Code: DoesNotExist}
	ErrLimitReached       = &Error{Code: LimitReached}
	ErrUnknown            = &Error{Code: Unknown}
)

// Errorf creates an *Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to err. A nil err yields nil.
func Wrap(code ErrorCode, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf maps any error to an ErrorCode. Validation errors from the item and
// filter packages map to InvalidArgument; context errors map to CodeCanceled and
// Timeout.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return NoError
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.Is(err, item.ErrInvalid), errors.Is(err, filter.ErrInvalidFilter):
		return InvalidArgument
	default:
		return Unknown
	}
}

// IsCanceled reports whether err carries the CodeCanceled code.
func IsCanceled(err error) bool {
	return CodeOf(err) == CodeCanceled
}

// IsTimeout reports whether err carries the Timeout code.
func IsTimeout(err error) bool {
	return CodeOf(err) == Timeout
}
