package httpclient

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		if calls < 2 {
			return StatusError{Code: http.StatusBadGateway}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second call, got %v after %d calls", err, calls)
	}
}

func TestRetrySkipsPermanentErrors(t *testing.T) {
	calls := 0
	permanent := StatusError{Code: http.StatusUnauthorized}
	err := Retry(context.Background(), Policy{Attempts: 5, BaseDelay: time.Millisecond}, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected one call, got %d (%v)", calls, err)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), Policy{Attempts: 3, BaseDelay: time.Millisecond}, func() error {
		calls++
		return context.DeadlineExceeded
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 calls, got %d (%v)", calls, err)
	}
}
