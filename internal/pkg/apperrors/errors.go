// Package apperrors gives the error taxonomy of spec.md §7 concrete,
// wrappable types instead of bare strings, so callers can branch on kind
// (e.g. the CRUD layer mapping ValidationError to HTTP 400) without string
// matching.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the coarse error category carried by every apperrors.Error.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindHandler    Kind = "HandlerError"
	KindStore      Kind = "StoreError"
	KindInternal   Kind = "InternalError"
)

// Handler-specific codes, carried in Error.Code when Kind == KindHandler.
const (
	CodeNodeIOError         = "NodeIOError"
	CodeCodeTimeout         = "CodeTimeout"
	CodeCodeRuntimeError    = "CodeRuntimeError"
	CodeConfigMissing       = "ConfigMissing"
	CodeUpstreamError       = "UpstreamError"
	CodeOAuthExchangeFailed = "OAuthExchangeFailed"
	CodeOAuthRefreshFailed  = "OAuthRefreshFailed"
	CodeCryptoAuthFailed    = "CryptoAuthFailed"
	CodeCryptoMalformed     = "CryptoMalformed"
)

var ErrCredentialNotFound = errors.New("credential not found")
var ErrWorkflowNotFound = errors.New("workflow not found")
var ErrExecutionNotFound = errors.New("execution not found")

// Error is the concrete type behind every taxonomy kind.
type Error struct {
	Kind    Kind
	Code    string // handler error code, empty for non-handler kinds
	NodeID  string // offending node id, when applicable
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: %s", e.NodeID, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation builds a ValidationError for the given node and message.
func Validation(nodeID, message string) *Error {
	return &Error{Kind: KindValidation, NodeID: nodeID, Message: message}
}

// Handler builds a HandlerError carrying code and an optional cause.
func Handler(code, message string, cause error) *Error {
	return &Error{Kind: KindHandler, Code: code, Message: message, Cause: cause}
}

// Store builds a StoreError; StoreErrors are logged but never re-raised
// over an in-flight failure report (spec.md §7).
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, Cause: cause}
}

// Internal builds an InternalError; the scheduler prefixes its message
// with "Unexpected error:" before surfacing it on the execution row.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// As reports whether err is an *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
