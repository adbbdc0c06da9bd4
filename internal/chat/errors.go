package chat

import "errors"

type ErrorCode string

const (
	ErrorCodeValidation         ErrorCode = "validation_error"
	ErrorCodeNotAuthenticated   ErrorCode = "not_authenticated"
	ErrorCodeHistoryUnavailable ErrorCode = "history_unavailable"
	ErrorCodeConnectionFailed   ErrorCode = "connection_failed"
	ErrorCodeDisconnected       ErrorCode = "disconnected"
	ErrorCodeSendUncertain      ErrorCode = "send_uncertain"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from err, or "" when err does not carry one.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
