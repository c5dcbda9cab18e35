// Package apperr defines the structured error taxonomy shared by every
// layer of agent-tui, from the session manager up through the request
// router and onto the wire.
package apperr

import (
	"errors"
	"fmt"
)

// Category classifies an Error for the wire protocol.
type Category string

const (
	CategoryUser      Category = "user_error"
	CategorySystem    Category = "system_error"
	CategoryTimeout   Category = "timeout"
	CategorySession   Category = "session_gone"
	CategoryTransient Category = "transient"
)

// Code enumerates the well-known error codes a client may switch on.
type Code string

const (
	CodeNoSuchSession          Code = "NoSuchSession"
	CodeChildGone              Code = "ChildGone"
	CodeElementNotInteractable Code = "ElementNotInteractable"
	CodeInvalidRef             Code = "InvalidRef"
	CodeSpawnFailed            Code = "SpawnFailed"
	CodeTooManySessions        Code = "TooManySessions"
	CodeTimeout                Code = "Timeout"
	CodeSessionGone            Code = "SessionGone"
	CodeProtocol               Code = "Protocol"
	CodeBadArgs                Code = "BadArgs"
	CodeSystem                 Code = "SystemError"
)

// Error is the structured error every public operation returns.
// It satisfies the `error` interface and carries everything the wire
// response needs: { code, message, category, retryable, suggestion }.
type Error struct {
	Code       Code
	Message    string
	Category   Category
	Retryable  bool
	Suggestion string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with the given code/category/message.
func New(code Code, category Category, message string) *Error {
	return &Error{Code: code, Category: category, Message: message}
}

// Wrap attaches cause to a new Error of the given code/category.
func Wrap(code Code, category Category, message string, cause error) *Error {
	return &Error{Code: code, Category: category, Message: message, Cause: cause}
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *Error) WithSuggestion(s string) *Error {
	c := *e
	c.Suggestion = s
	return &c
}

// WithRetryable returns a copy of e with Retryable set.
func (e *Error) WithRetryable(b bool) *Error {
	c := *e
	c.Retryable = b
	return &c
}

func NoSuchSession(id string) *Error {
	return New(CodeNoSuchSession, CategoryUser, fmt.Sprintf("no session %q", id)).
		WithSuggestion("run `ls` or `spawn`")
}

func ChildGone(id string) *Error {
	return New(CodeChildGone, CategorySession, fmt.Sprintf("child process for session %q has exited", id))
}

func ElementNotInteractable(ref string) *Error {
	return New(CodeElementNotInteractable, CategoryUser,
		fmt.Sprintf("element %q is not the focused input", ref))
}

func InvalidRef(ref string) *Error {
	return New(CodeInvalidRef, CategoryUser, fmt.Sprintf("ref %q is not in the most recent snapshot", ref)).
		WithSuggestion("take a fresh snapshot")
}

func SpawnFailed(cause error) *Error {
	return Wrap(CodeSpawnFailed, CategorySystem, "failed to spawn child under pty", cause)
}

func TooManySessions(cap int) *Error {
	return New(CodeTooManySessions, CategoryUser, fmt.Sprintf("daemon session cap (%d) reached", cap))
}

func Timeout(op string) *Error {
	return New(CodeTimeout, CategoryTimeout, fmt.Sprintf("%s timed out", op)).WithRetryable(true)
}

func SessionGone(id string) *Error {
	return New(CodeSessionGone, CategorySession, fmt.Sprintf("session %q exited or was killed", id))
}

func Protocol(message string) *Error {
	return New(CodeProtocol, CategoryUser, message)
}

func BadArgs(message string) *Error {
	return New(CodeBadArgs, CategoryUser, message)
}

func System(cause error) *Error {
	return Wrap(CodeSystem, CategorySystem, "system error", cause)
}

// As attempts to extract an *Error from err, wrapping as a system error
// when err is not already one of ours — every error that crosses the
// transport boundary arrives as a structured Error.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return System(err)
}
