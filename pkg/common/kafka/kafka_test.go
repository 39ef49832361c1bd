package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/synaptica-ai/cardiorisk/pkg/common/models"
)

func TestEncodeDecodeEvent(t *testing.T) {
	message, event, err := EncodeEvent("risk.assessed", "risk-service", map[string]interface{}{"risk": "High Risk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(message.Key) != event.ID {
		t.Fatalf("expected key %s, got %s", event.ID, message.Key)
	}
	if len(message.Headers) != 2 || string(message.Headers[0].Value) != "risk.assessed" {
		t.Fatalf("unexpected headers %+v", message.Headers)
	}

	decoded, err := DecodeEvent(message.Value)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Type != "risk.assessed" || decoded.Source != "risk-service" || decoded.Data["risk"] != "High Risk" {
		t.Fatalf("unexpected event %+v", decoded)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte("not-json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestHandleRetriesThenGivesUp(t *testing.T) {
	c := &Consumer{maxAttempts: 3, retryDelay: time.Millisecond}
	event := models.Event{ID: "e1", Type: "patient.intake"}

	calls := 0
	err := c.handle(context.Background(), func(ctx context.Context, e models.Event) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, event)
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got %v after %d calls", err, calls)
	}

	calls = 0
	err = c.handle(context.Background(), func(ctx context.Context, e models.Event) error {
		calls++
		return errors.New("permanent")
	}, event)
	if err == nil || calls != 3 {
		t.Fatalf("expected failure after 3 attempts, got %v after %d calls", err, calls)
	}
}

func TestHandleStopsOnCancel(t *testing.T) {
	c := &Consumer{maxAttempts: 5, retryDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := c.handle(ctx, func(ctx context.Context, e models.Event) error {
		calls++
		cancel()
		return errors.New("boom")
	}, models.Event{ID: "e2"})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("expected cancellation after one call, got %v after %d calls", err, calls)
	}
}
