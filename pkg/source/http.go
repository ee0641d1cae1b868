package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/errors"
)

// HTTPLoader fetches tables over HTTP. The id is appended to BaseURL.
type HTTPLoader struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPLoader creates a loader for base with the given request timeout.
func NewHTTPLoader(base string, timeout time.Duration) *HTTPLoader {
	return &HTTPLoader{
		BaseURL: base,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Load issues a GET request and returns the decompressed body.
func (l *HTTPLoader) Load(ctx context.Context, id string) (string, error) {
	target := l.BaseURL + id
	u, err := url.Parse(target)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "invalid table url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to build request")
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, "failed to fetch "+target)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errors.Newf(errors.ErrorTypeNotFound, "table %s not found", target).
			WithDetail("status", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", errors.Newf(errors.ErrorTypeConnection, "unexpected status fetching %s", target).
			WithDetail("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, compression.DefaultMaxSize))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("failed to read %s", target))
	}
	return decode(strings.TrimSuffix(u.Path, "/"), body)
}
