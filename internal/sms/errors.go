package sms

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for bad caller input: missing message
	// fields, illegal status values or malformed recipients.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfig is returned when a provider is built without a required option.
	ErrConfig = errors.New("incomplete provider options")

	// ErrNoProvider is returned by Message.Send when no provider is bound.
	ErrNoProvider = errors.New("no provider bound to message")

	// ErrDecode is returned when a vendor reply cannot be parsed.
	ErrDecode = errors.New("decode response")

	// ErrUnknownField is returned by indexed access for an unrecognized field name.
	ErrUnknownField = errors.New("unknown message field")
)

// ProviderError is a vendor-reported send failure. It carries the vendor's
// code and the response body so callers can inspect what went wrong.
// The send pipeline records it on the message instead of returning it.
type ProviderError struct {
	Provider     string
	Message      string
	Code         int
	ResponseBody any
	Err          error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("error %d: %s", e.Code, msg)
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// configError wraps ErrConfig and ErrInvalidArgument so callers can match either.
type configError struct {
	msg string
}

func (e *configError) Error() string { return e.msg }

func (e *configError) Is(target error) bool {
	return target == ErrConfig || target == ErrInvalidArgument
}
