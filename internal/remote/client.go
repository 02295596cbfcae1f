package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	apperrors "orderflow/internal/errors"
	"orderflow/internal/identity"
)

const maxErrorMessageLen = 256

// Client performs synchronous JSON calls to sibling services, forwarding the
// caller's bearer token from the request context. It never retries; retry and
// fallback policy belongs to the breaker around it.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0),
		logger: logger,
	}
}

// Do sends body (JSON encoded, when non-nil) and decodes a successful
// response into out (when non-nil and the response has a body).
//
// Transport failures and cancelled contexts become UnavailableError, 4xx
// RemoteRejectedError and everything else that is not 2xx RemoteFaultError.
func (c *Client) Do(ctx context.Context, method, url string, body, out any) error {
	start := time.Now()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")

	if token, ok := identity.Token(ctx); ok {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		c.logger.Warn("remote call failed", zap.String("method", method), zap.String("url", url), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return apperrors.NewUnavailableError(url, err)
	}

	status := resp.StatusCode()
	c.logger.Debug("remote call completed", zap.String("method", method), zap.String("url", url), zap.Int("status", status), zap.Duration("elapsed", time.Since(start)))

	switch {
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return apperrors.NewRemoteRejectedError(url, status, errorMessage(resp.Body()))
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return apperrors.NewRemoteFaultError(url, status, errorMessage(resp.Body()))
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperrors.NewRemoteFaultError(url, status, "undecodable response body: "+err.Error())
	}
	return nil
}

// Invoke is Do for callers that want the decoded response as a value.
func Invoke[T any](ctx context.Context, c *Client, method, url string, body any) (T, error) {
	var out T
	err := c.Do(ctx, method, url, body, &out)
	return out, err
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}
