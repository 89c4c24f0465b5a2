// Package upstream holds the REST clients for the backend services this
// storefront delegates to: catalog, sales, payment and auth. The clients are
// thin request/response wrappers; all business rules live server-side.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of an upstream error body is read for message
// extraction.
const maxErrorBody = 64 << 10

// client is the shared HTTP plumbing for all upstream services. Timeout
// semantics are whatever the http.Client enforces; there is no retry or
// backoff layer.
type client struct {
	base string
	http *http.Client
}

func newClient(baseURL string, timeout time.Duration) client {
	return client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// do issues one JSON request. in may be nil for bodiless requests, out may
// be nil when the response body is irrelevant. bearer, when non-empty, is
// sent as the Authorization token. Non-2xx responses become *APIError with
// the best-effort extracted message.
func (c client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request "+path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Path:    path,
			Message: ExtractMessage(raw),
		}
		zctx.From(ctx).Debug("Upstream request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response from "+path)
	}
	return nil
}
