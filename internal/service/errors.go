package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// Kind identifies a forwarding failure class. The set is closed: every
// transport error the engine can surface maps to exactly one Kind, and every
// Kind maps to exactly one response status.
type Kind int

const (
	// KindUpstreamUnreachable covers connection refused and DNS failures.
	KindUpstreamUnreachable Kind = iota
	// KindUpstreamTimeout covers the per-request deadline expiring before
	// upstream response headers arrived.
	KindUpstreamTimeout
	// KindClientGone covers the caller disconnecting while the upstream
	// request was still in flight.
	KindClientGone
	// KindUpstreamFailed covers any other transport failure before response
	// headers were received.
	KindUpstreamFailed
)

// kindStatus is the exhaustive Kind → response status mapping.
var kindStatus = map[Kind]int{
	KindUpstreamUnreachable: http.StatusBadGateway,
	KindUpstreamTimeout:     http.StatusGatewayTimeout,
	KindClientGone:          http.StatusBadGateway,
	KindUpstreamFailed:      http.StatusBadGateway,
}

// kindMessage is the generic caller-facing body per Kind. Raw transport
// error details stay in the logs and never reach the caller.
var kindMessage = map[Kind]string{
	KindUpstreamUnreachable: "upstream unreachable",
	KindUpstreamTimeout:     "upstream request timed out",
	KindClientGone:          "client disconnected",
	KindUpstreamFailed:      "upstream request failed",
}

// Error is a classified forwarding failure.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return kindMessage[e.Kind]
	}
	return kindMessage[e.Kind] + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status the proxy responds with for this failure.
func (e *Error) Status() int { return kindStatus[e.Kind] }

// Message returns the generic response body text for this failure.
func (e *Error) Message() string { return kindMessage[e.Kind] }

// classify wraps a transport error with its Kind.
//
// Order matters: a canceled context often also surfaces as a *url.Error, so
// context state is inspected first.
func classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamTimeout, cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindClientGone, cause: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindUpstreamUnreachable, cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// http.Client.Timeout reports through url.Error with Timeout()=true
		// rather than wrapping context.DeadlineExceeded.
		if urlErr.Timeout() {
			return &Error{Kind: KindUpstreamTimeout, cause: err}
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return &Error{Kind: KindUpstreamUnreachable, cause: err}
		}
	}

	return &Error{Kind: KindUpstreamFailed, cause: err}
}
