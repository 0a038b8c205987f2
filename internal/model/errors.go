package model

import (
	"fmt"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil && e.Value != "" {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// TransitionError represents a rejected state machine transition
type TransitionError struct {
	From    string
	To      string
	Message string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Message)
}

// NewTransitionError creates a new transition error
func NewTransitionError(from, to, message string) *TransitionError {
	return &TransitionError{From: from, To: to, Message: message}
}

// ProtocolError is a single (code, message) pair returned by the tax
// authority. Errors are surfaced in the order received, verbatim.
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// RejectionError wraps the ordered list of authority errors for a
// rejected submission. Terminal for that submission attempt.
type RejectionError struct {
	Errors []ProtocolError
}

func (e *RejectionError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		parts[i] = pe.Error()
	}
	return "authority rejected submission: " + strings.Join(parts, "; ")
}

// NewRejectionError creates a rejection error preserving error order
func NewRejectionError(errs []ProtocolError) *RejectionError {
	return &RejectionError{Errors: errs}
}

// TransmissionError represents a transport-level failure talking to
// the authority. Transient failures (timeout, unreachable host) leave
// the invoice pending and are safe to retry.
type TransmissionError struct {
	Op        string
	Transient bool
	Cause     error
}

func (e *TransmissionError) Error() string {
	kind := "terminal"
	if e.Transient {
		kind = "transient"
	}
	if e.Cause != nil {
		return fmt.Sprintf("transmission %s failed (%s): %v", e.Op, kind, e.Cause)
	}
	return fmt.Sprintf("transmission %s failed (%s)", e.Op, kind)
}

func (e *TransmissionError) Unwrap() error {
	return e.Cause
}

// NewTransmissionError creates a new transmission error
func NewTransmissionError(op string, transient bool, cause error) *TransmissionError {
	return &TransmissionError{Op: op, Transient: transient, Cause: cause}
}

// CredentialsError represents an authentication failure against the
// transmission endpoint. Fatal for that credential set; distinct from
// validation and protocol rejection.
type CredentialsError struct {
	Message string
}

func (e *CredentialsError) Error() string {
	return "credentials rejected: " + e.Message
}

// NewCredentialsError creates a new credentials error
func NewCredentialsError(message string) *CredentialsError {
	return &CredentialsError{Message: message}
}

// AllocationError represents a numbering allocation failure
type AllocationError struct {
	Owner     string
	Series    string
	Retryable bool
	Cause     error
}

func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("number allocation failed for %s series %s: %v", e.Owner, e.Series, e.Cause)
	}
	return fmt.Sprintf("number allocation failed for %s series %s", e.Owner, e.Series)
}

func (e *AllocationError) Unwrap() error {
	return e.Cause
}

// NewAllocationError creates a new allocation error
func NewAllocationError(owner, series string, retryable bool, cause error) *AllocationError {
	return &AllocationError{Owner: owner, Series: series, Retryable: retryable, Cause: cause}
}

// ParseError represents wire format parsing errors
type ParseError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s (%v)", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(field, message string, cause error) *ParseError {
	return &ParseError{Field: field, Message: message, Cause: cause}
}
