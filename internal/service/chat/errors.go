package chat

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of a submission.
type ErrorKind string

const (
	// KindMissingCredential means no provider call was attempted.
	KindMissingCredential ErrorKind = "missing_credential"
	// KindProviderError covers every failure reported by the completion provider.
	KindProviderError ErrorKind = "provider_error"
)

// Error is returned by Session.Submit. Message is safe to show to the user;
// for provider failures it is the provider's own error text.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("chat: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf extracts the ErrorKind from err, or "" when err is not a submission error.
func KindOf(err error) ErrorKind {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Kind
	}
	return ""
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
