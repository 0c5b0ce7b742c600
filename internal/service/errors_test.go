package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
)

// timeoutErr satisfies net.Error with Timeout() = true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "context deadline exceeded",
			err:  fmt.Errorf("upstream request: %w", context.DeadlineExceeded),
			want: KindUpstreamTimeout,
		},
		{
			name: "context canceled",
			err:  fmt.Errorf("upstream request: %w", context.Canceled),
			want: KindClientGone,
		},
		{
			name: "dns failure",
			err:  fmt.Errorf("upstream request: %w", &net.DNSError{Err: "no such host", Name: "backend.internal"}),
			want: KindUpstreamUnreachable,
		},
		{
			name: "client timeout via url.Error",
			err:  fmt.Errorf("upstream request: %w", &url.Error{Op: "Get", URL: "http://backend.internal/x", Err: timeoutErr{}}),
			want: KindUpstreamTimeout,
		},
		{
			name: "connection refused",
			err: fmt.Errorf("upstream request: %w", &url.Error{
				Op:  "Get",
				URL: "http://backend.internal/x",
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			}),
			want: KindUpstreamUnreachable,
		},
		{
			name: "other url.Error",
			err:  fmt.Errorf("upstream request: %w", &url.Error{Op: "Get", URL: "http://backend.internal/x", Err: errors.New("malformed response")}),
			want: KindUpstreamFailed,
		},
		{
			name: "unclassified error",
			err:  errors.New("something odd"),
			want: KindUpstreamFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("classify() kind = %v, want %v", got.Kind, tt.want)
			}
			if !errors.Is(got, tt.err) && got.Unwrap() != tt.err {
				t.Errorf("classify() must wrap the original error")
			}
		})
	}
}

func TestKindMappingExhaustive(t *testing.T) {
	kinds := []Kind{
		KindUpstreamUnreachable,
		KindUpstreamTimeout,
		KindClientGone,
		KindUpstreamFailed,
	}

	for _, k := range kinds {
		e := &Error{Kind: k, cause: errors.New("boom")}
		if e.Status() == 0 {
			t.Errorf("kind %v has no status mapping", k)
		}
		if e.Message() == "" {
			t.Errorf("kind %v has no message mapping", k)
		}
		if e.Error() == "" {
			t.Errorf("kind %v produces empty Error()", k)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUpstreamUnreachable, http.StatusBadGateway},
		{KindUpstreamTimeout, http.StatusGatewayTimeout},
		{KindClientGone, http.StatusBadGateway},
		{KindUpstreamFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		e := &Error{Kind: tt.kind, cause: errors.New("boom")}
		if got := e.Status(); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
