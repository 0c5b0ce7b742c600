// Package service implements the core forwarding engine.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"authrelay/internal/client"
	"authrelay/internal/config"
	"authrelay/internal/model"
)

// hopByHopHeaders are tied to a single network hop and are never forwarded,
// in either direction (RFC 7230 §6.1).
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// RelayService forwards authorized requests to the single configured
// upstream origin. It is stateless apart from read-only configuration and is
// safe for concurrent use.
type RelayService struct {
	client           *client.UpstreamClient
	logger           *slog.Logger
	baseURL          *url.URL
	credentialHeader string
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	return &RelayService{
		client:           c,
		logger:           logger.With("component", "relay_service"),
		baseURL:          u,
		credentialHeader: http.CanonicalHeaderKey(cfg.Auth.Header),
	}, nil
}

// Relay forwards a request to the upstream and returns its response as a
// stream. The caller is responsible for closing the response body. Must only
// be invoked for requests that already passed credential validation.
//
// The inbound method, path and query are preserved verbatim; headers are
// copied except hop-by-hop headers, the Host header (rewritten to the
// upstream authority by the transport) and the credential header, which is
// deliberately stripped so the shared secret is never disclosed to the
// upstream. Failures are classified into *Error.
func (s *RelayService) Relay(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	upstreamURL := s.buildUpstreamURL(pr.Path, pr.RawPath, pr.RawQuery)
	header := s.forwardableHeaders(pr.Header)

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, upstreamURL, header, pr.Body)
	if err != nil {
		return nil, classify(err)
	}

	stripHopByHop(resp.Header)
	return resp, nil
}

// buildUpstreamURL joins the upstream base with the inbound path and raw
// query. No normalization is applied: this proxy forwards paths as-is,
// traversal sequences and percent-encoding included (transparent-forwarding
// contract). rawPath is the escaped form of path; empty means they coincide.
func (s *RelayService) buildUpstreamURL(path, rawPath, rawQuery string) string {
	u := *s.baseURL
	base := strings.TrimSuffix(u.Path, "/")
	baseRaw := strings.TrimSuffix(u.EscapedPath(), "/")
	if rawPath == "" {
		rawPath = path
	}
	u.Path = base + path
	u.RawPath = baseRaw + rawPath
	u.RawQuery = rawQuery
	return u.String()
}

// forwardableHeaders copies the inbound headers, dropping hop-by-hop headers,
// Host, and the credential header. Duplicate values per key are preserved.
func (s *RelayService) forwardableHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		dst[key] = append([]string(nil), vals...)
	}
	stripHopByHop(dst)
	dst.Del("Host")
	dst.Del(s.credentialHeader)
	return dst
}

// stripHopByHop removes hop-by-hop headers from h, including any headers
// nominated by the Connection header itself.
func stripHopByHop(h http.Header) {
	for _, name := range h.Values("Connection") {
		for _, field := range strings.Split(name, ",") {
			if field = strings.TrimSpace(field); field != "" {
				h.Del(field)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
