package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
)

// StatusError is returned when the server answers with a non-OK status
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// IsStatus reports whether err carries the given HTTP status code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Get performs a GET request and returns at most maxBytes of the response body
	Get(ctx context.Context, url string, maxBytes int64) ([]byte, error)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client         *http.Client
	maxElapsedTime time.Duration
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration, maxElapsedTime time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxElapsedTime: maxElapsedTime,
	}
}

// Get performs a GET request and returns at most maxBytes of the response body.
// Rate limited (429) and server side (5xx) answers are retried with exponential backoff
func (c *RealHTTPClient) Get(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
			}
		}()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			logger.Debug("retryable status, retrying with backoff", zap.String("url", url), zap.Int("status", resp.StatusCode))
			return &StatusError{URL: url, Code: resp.StatusCode}
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(&StatusError{URL: url, Code: resp.StatusCode})
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if int64(len(body)) > maxBytes {
			return backoff.Permanent(fmt.Errorf("response body of %s exceeds %d bytes", url, maxBytes))
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = c.maxElapsedTime
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return body, nil
}
