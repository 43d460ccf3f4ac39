// Package http fetches remote images over HTTP(S).
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/adaptivebg/internal/version"
)

const (
	// UserAgentName is the application name used in the User-Agent header.
	UserAgentName = "adaptivebg"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes caps the size of a fetched body.
	DefaultMaxBytes = 64 * 1024 * 1024
)

// ErrTooLarge is returned when a body exceeds FetchOptions.MaxBytes.
var ErrTooLarge = errors.New("response body too large")

// StatusError reports a non-200 response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// FetchOptions configures a fetch.
type FetchOptions struct {
	// Timeout bounds the whole request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// MaxBytes limits the response body. Zero uses DefaultMaxBytes.
	MaxBytes int64

	// Headers are added to the request.
	Headers map[string]string
}

// Fetch GETs url and returns its body. Content type is not checked; the
// image decoder decides what the bytes are.
func Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgentName+"/"+version.Version)
	req.Header.Set("Accept", "image/*, */*;q=0.5")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
