package netstatus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Prober checks reachability of the backing service.
type Prober interface {
	// Probe returns the round-trip latency of a successful check.
	Probe(ctx context.Context) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (time.Duration, error)

func (f ProberFunc) Probe(ctx context.Context) (time.Duration, error) { return f(ctx) }

// HTTPProber requests a liveness endpoint and treats any 2xx as reachable.
type HTTPProber struct {
	client  *http.Client
	url     string
	method  string
	timeout time.Duration
}

// NewHTTPProber creates a prober for url. Method defaults to HEAD and timeout
// to DefaultProbeTimeout.
func NewHTTPProber(url, method string, timeout time.Duration, client *http.Client) *HTTPProber {
	if method == "" {
		method = http.MethodHead
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProber{client: client, url: url, method: method, timeout: timeout}
}

func (p *HTTPProber) Probe(ctx context.Context) (time.Duration, error) {
	if p.url == "" {
		return 0, ErrNoProbeURL
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, p.method, p.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return latency, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
	return latency, nil
}
