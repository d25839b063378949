package organizer

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced to the user
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindValidation
	KindExtraction
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindExtraction:
		return "extraction"
	default:
		return "unknown"
	}
}

// Messages shown to the user. The extraction message is shared by transport
// failures and malformed responses.
const (
	MsgCouldNotOrganize = "Could not organize emails. Please check the input and try again."
	MsgEmptyInput       = "Please paste some email text first."
)

// Error carries a user-facing message and the underlying cause for logging
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigurationError reports missing credentials. It is never retried.
func ConfigurationError(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// ValidationError reports input the user has to correct
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ExtractionFailure wraps any failure of the model call or its response
func ExtractionFailure(cause error) *Error {
	return &Error{Kind: KindExtraction, Message: MsgCouldNotOrganize, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns text safe to show in the browser. Causes are never included.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgCouldNotOrganize
}
