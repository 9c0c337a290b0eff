// Package retry provides bounded exponential-backoff retry for external
// calls, plus the error taxonomy shared by every layer of the server.
//
// All failures that cross a package boundary are classified into an
// [*Error] carrying a stable wire code and a retryability verdict. An
// already-classified error passes through unchanged; untyped errors are
// inspected for transient markers (connection failures, rate limits,
// timeouts) and classified under the caller's default code.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Wire error codes. These appear verbatim in error replies to clients.
const (
	CodeConnectionError      = "CONNECTION_ERROR"
	CodeTranscriptionFailed  = "TRANSCRIPTION_FAILED"
	CodeSynthesisFailed      = "SYNTHESIS_FAILED"
	CodeConversationFailed   = "CONVERSATION_FAILED"
	CodeSessionNotFound      = "SESSION_NOT_FOUND"
	CodeNoActiveSession      = "NO_ACTIVE_SESSION"
	CodeSessionLocked        = "SESSION_LOCKED"
	CodeInvalidMessage       = "INVALID_MESSAGE"
	CodeSpecSaveFailed       = "SPEC_SAVE_FAILED"
	CodeSessionPersistFailed = "SESSION_PERSIST_FAILED"
	CodeInternal             = "INTERNAL_ERROR"
)

// fallbackModes maps error codes to the degraded mode a client should
// switch to when the failure persists.
var fallbackModes = map[string]string{
	CodeTranscriptionFailed: "text-input",
	CodeSynthesisFailed:     "text-only",
}

// Error is a classified failure. Code is one of the Code* constants,
// Retryable reports whether the operation may be attempted again, and
// FallbackMode (optional) names the degraded mode the client can fall
// back to.
type Error struct {
	Code         string
	Message      string
	FallbackMode string
	Retryable    bool
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a non-retryable, client-correctable error with the given
// code. Used for protocol violations (unknown session, no active
// session, lock contention, malformed payloads).
func New(code, message string) *Error {
	return &Error{Code: code, Message: message, FallbackMode: fallbackModes[code]}
}

// Newf is New with formatting.
func Newf(code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Classify turns err into an *Error. A typed *Error passes through
// unchanged. An untyped error carrying markers of connection failure,
// rate limiting, or timeout becomes retryable under defaultCode;
// anything else becomes non-retryable under defaultCode.
func Classify(err error, defaultCode string) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{
		Code:         defaultCode,
		Message:      err.Error(),
		FallbackMode: fallbackModes[defaultCode],
		Retryable:    isTransient(err),
		Err:          err,
	}
}

// isTransient reports whether err looks like a connection-layer failure,
// a rate limit, or a timeout.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"broken pipe",
		"timeout",
		"timed out",
		"deadline exceeded",
		"rate limit",
		"too many requests",
		"429",
		"502",
		"503",
		"unavailable",
		"overloaded",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
