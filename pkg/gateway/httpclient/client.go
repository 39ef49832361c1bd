package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultPolicy = Policy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}

// New creates an HTTP client for calls to the identity provider.
func New(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Retry runs fn until it succeeds, returns a non-retriable error or the
// policy runs out of attempts.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	if p.Attempts <= 1 {
		return fn()
	}

	var err error
	delay := p.BaseDelay
	for i := 0; i < p.Attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil || !IsRetriable(err) {
			return err
		}

		if i == p.Attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return err
}

// StatusError reports an unexpected upstream status code.
type StatusError struct {
	Code int
}

func (e StatusError) Error() string {
	return "upstream returned " + http.StatusText(e.Code)
}

// IsRetriable reports whether err is a timeout or an upstream 5xx.
func IsRetriable(err error) bool {
	var status StatusError
	if errors.As(err, &status) {
		return status.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
