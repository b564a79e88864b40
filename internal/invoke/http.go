package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPInvoker resolves service names to base URLs and performs plain
// JSON-over-HTTP calls.
type HTTPInvoker struct {
	services map[string]*url.URL
	client   *http.Client
}

func NewHTTPInvoker(services map[string]string, timeout time.Duration) (*HTTPInvoker, error) {
	resolved := make(map[string]*url.URL, len(services))
	for name, base := range services {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid %s base url %q: %w", name, base, err)
		}
		resolved[name] = u
	}
	return &HTTPInvoker{
		services: resolved,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (i *HTTPInvoker) Invoke(ctx context.Context, service, route, method string, body any) ([]byte, error) {
	base, ok := i.services[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	u := base.ResolveReference(&url.URL{Path: route})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := i.client.Do(req)
	if err != nil {
		var ue *url.Error
		if ctx.Err() != nil || (errors.As(err, &ue) && ue.Timeout()) {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrTimeout, service, route, err)
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, service, route, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, service, route)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, service, route, resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s: unexpected status %d", service, route, resp.StatusCode)
	}

	return payload, nil
}
