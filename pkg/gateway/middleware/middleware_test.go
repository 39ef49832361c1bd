package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(1, 2)(http.HandlerFunc(ok))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLoggingSetsRequestID(t *testing.T) {
	var seen interface{}
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(RequestIDContextKey)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(rec, req)
	if seen != "req-42" || rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("expected request id to propagate, got %v", seen)
	}
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		if _, err := r.Body.Read(buf); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

type fakeValidator struct{}

func (fakeValidator) ValidateToken(ctx context.Context, token string) (map[string]interface{}, error) {
	if token != "good" {
		return nil, errors.New("rejected")
	}
	return map[string]interface{}{"sub": "clinician-7"}, nil
}

func TestAuthenticate(t *testing.T) {
	var user interface{}
	h := Authenticate(fakeValidator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = r.Context().Value(UserContextKey)
	}))

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.want, rec.Code)
		}
	}
	if claims, _ := user.(map[string]interface{}); claims["sub"] != "clinician-7" {
		t.Fatalf("expected claims in context, got %v", user)
	}
}
