// Package supabase talks to the hosted identity and data provider over its
// REST API. Two clients exist on purpose: PublicClient carries only the
// low-privilege anon key and serves caller-initiated calls, ServiceClient
// carries the service key and serves server-side privileged reads and
// writes. Nothing reachable from a browser ever holds a ServiceClient.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	dErrors "careergate/pkg/domain-errors"
)

const maxResponseBytes = 1 << 20

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// statusError is a non-2xx response. The body is kept for operator logs.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Status, e.Body)
}

type rest struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

func newRest(baseURL, apiKey string, client HTTPDoer, timeout time.Duration) rest {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return rest{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	bearer string
	prefer string
}

// do sends the call and decodes a 2xx JSON body into out when out is not
// nil. Transport failures and 5xx are wrapped as unavailable; other non-2xx
// responses come back as *statusError so callers can classify them.
func (r rest) do(ctx context.Context, c call, out any) error {
	u := r.baseURL + c.path
	if len(c.query) > 0 {
		u += "?" + c.query.Encode()
	}

	var body io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode provider request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, u, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build provider request")
	}
	req.Header.Set("apikey", r.apiKey)
	bearer := c.bearer
	if bearer == "" {
		bearer = r.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.prefer != "" {
		req.Header.Set("Prefer", c.prefer)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "provider request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "read provider response")
	}

	switch {
	case resp.StatusCode >= 500:
		return dErrors.Wrap(&statusError{Status: resp.StatusCode, Body: string(raw)}, dErrors.CodeUnavailable, "provider unavailable")
	case resp.StatusCode >= 300:
		return &statusError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode provider response")
	}
	return nil
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
