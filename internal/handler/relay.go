package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"authrelay/internal/auth"
	"authrelay/internal/metrics"
	"authrelay/internal/model"
	"authrelay/internal/service"
)

// RelayHandler validates the credential header and forwards authorized
// requests to the upstream.
type RelayHandler struct {
	validator *auth.Validator
	service   *service.RelayService
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewRelayHandler creates a RelayHandler. The metrics parameter is optional;
// pass nil to disable auth rejection counters.
func NewRelayHandler(v *auth.Validator, svc *service.RelayService, logger *slog.Logger, m *metrics.Metrics) *RelayHandler {
	return &RelayHandler{
		validator: v,
		service:   svc,
		logger:    logger.With("component", "relay_handler"),
		metrics:   m,
	}
}

// Handle runs credential validation and, on success, relays the request to
// the upstream and streams the response back. On rejection the upstream is
// never contacted; the caller receives 401 with a generic body.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	if result := h.validator.Check(req.Header); !result.Authorized() {
		h.logger.Info("request rejected",
			"reason", string(result.Reason()),
			"method", req.Method,
			"path", req.URL.Path,
			"remote_ip", c.RealIP(),
		)
		if h.metrics != nil {
			h.metrics.AuthRejections.WithLabelValues(string(result.Reason())).Inc()
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": rejectionMessage(result.Reason()),
		})
	}

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     req.URL.Path,
		RawPath:  req.URL.EscapedPath(),
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.service.Relay(pr)
	if err != nil {
		return h.mapError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If the copy fails
	// mid-stream the status line is already on the wire, so no clean error
	// response is possible; abort the connection instead of letting a
	// truncated body masquerade as a complete one.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
		panic(http.ErrAbortHandler)
	}

	return nil
}

// rejectionMessage returns the generic 401 body text. It never echoes the
// presented credential or the expected secret.
func rejectionMessage(r auth.Reason) string {
	if r == auth.ReasonMissing {
		return "missing credential"
	}
	return "invalid credential"
}

func (h *RelayHandler) mapError(c echo.Context, err error) error {
	h.logger.Error("relay error",
		"err", err,
		"path", c.Request().URL.Path,
	)

	var relayErr *service.Error
	if errors.As(err, &relayErr) {
		return c.JSON(relayErr.Status(), map[string]string{
			"error": relayErr.Message(),
		})
	}

	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "upstream request failed",
	})
}
