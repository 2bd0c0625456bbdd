// ABOUTME: Typed gateway failures and the user-facing fallback text for each
// ABOUTME: Callers that only want text use Reply; Complete exposes the Error

package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNoCredential means the gateway was built without an API key.
var ErrNoCredential = errors.New("no completion API key configured")

// ErrEmptyReply means the service answered with no usable text.
var ErrEmptyReply = errors.New("completion returned no content")

// FailureKind classifies why a completion produced no reply.
type FailureKind int

const (
	// FailureUnavailable: no credential, no network attempt was made.
	FailureUnavailable FailureKind = iota + 1
	// FailureTransport: timeout, cancellation, rate wait or network fault.
	FailureTransport
	// FailureService: the service rejected or failed the request.
	FailureService
	// FailureEmptyReply: the service answered with nothing usable.
	FailureEmptyReply
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnavailable:
		return "unavailable"
	case FailureTransport:
		return "transport"
	case FailureService:
		return "service"
	case FailureEmptyReply:
		return "empty_reply"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Error is returned by Complete.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("assistant %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fallback texts shown to the user in place of a reply.
const (
	FallbackUnavailable = "I'm sorry, but I'm currently unable to process messages. Please try again later."
	FallbackEmptyReply  = "I apologize, but I couldn't generate a proper response. Please try again."
	FallbackService     = "I encountered an error while processing your message. Please try again later."
	FallbackTransport   = "I'm having trouble connecting right now. Please try again later."
)

// Fallback returns the user-facing text for a failure kind.
func Fallback(kind FailureKind) string {
	switch kind {
	case FailureUnavailable:
		return FallbackUnavailable
	case FailureEmptyReply:
		return FallbackEmptyReply
	case FailureService:
		return FallbackService
	default:
		return FallbackTransport
	}
}

// classify maps a client error to a failure kind.
func classify(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureTransport
	}
	return FailureService
}
