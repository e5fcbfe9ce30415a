package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/core"
)

var fastRetry = RetryConfig{
	MaxRetries:    2,
	InitialDelay:  time.Millisecond,
	MaxDelay:      5 * time.Millisecond,
	BackoffFactor: 2.0,
}

const okReply = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Save "},{"text":"more."}]}}]}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", "", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()), WithRetryConfig(fastRetry))
}

func TestClient_Generate(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.URL.RawQuery != "" {
			t.Errorf("api key must not be sent in the query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(okReply))
	})

	reply, err := c.Generate(context.Background(), "give me tips")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Save more." {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(got.Contents) != 1 || got.Contents[0].Parts[0].Text != "give me tips" {
		t.Errorf("unexpected contents %+v", got.Contents)
	}
	if got.GenerationConfig != defaultGenerationConfig {
		t.Errorf("unexpected generation config %+v", got.GenerationConfig)
	}
}

func TestClient_Chat(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(okReply))
	})

	history := []core.ChatMessage{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}
	if _, err := c.Chat(context.Background(), history, "how do I save?", "User's financial snapshot:\n- Total spent this month: $400.00\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantRoles := []string{"user", "model", "user", "model", "user"}
	if len(got.Contents) != len(wantRoles) {
		t.Fatalf("expected %d turns, got %d", len(wantRoles), len(got.Contents))
	}
	for i, role := range wantRoles {
		if got.Contents[i].Role != role {
			t.Errorf("turn %d: expected role %s, got %s", i, role, got.Contents[i].Role)
		}
	}
	if !strings.Contains(got.Contents[0].Parts[0].Text, "Total spent this month: $400.00") {
		t.Errorf("system turn missing snapshot: %q", got.Contents[0].Parts[0].Text)
	}
	if got.Contents[1].Parts[0].Text != chatAcknowledgement {
		t.Errorf("unexpected acknowledgement %q", got.Contents[1].Parts[0].Text)
	}
	if got.Contents[4].Parts[0].Text != "how do I save?" {
		t.Errorf("last turn should be the new message, got %q", got.Contents[4].Parts[0].Text)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(okReply))
		}
	})

	reply, err := c.Generate(context.Background(), "p")
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if reply != "Save more." || calls.Load() != 3 {
		t.Errorf("reply=%q calls=%d", reply, calls.Load())
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      ErrorCode
		retryable bool
		calls     int32
	}{
		{"bad request is not retried", http.StatusBadRequest, `{"error":"bad"}`, ErrRejected, false, 1},
		{"server errors exhaust retries", http.StatusInternalServerError, "oops", ErrUnavailable, true, 3},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, ErrEmptyReply, false, 1},
		{"garbage", http.StatusOK, `not json`, ErrBadReply, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Generate(context.Background(), "p")
			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if gerr.Code != tt.code || gerr.Retryable != tt.retryable {
				t.Errorf("got code=%s retryable=%v", gerr.Code, gerr.Retryable)
			}
			if calls.Load() != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, calls.Load())
			}
		})
	}
}

func TestClient_TransportErrorOmitsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient("secret-key-123", "", WithBaseURL(base), WithRetryConfig(fastRetry))
	_, err := c.Generate(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Code != ErrUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if strings.Contains(err.Error(), "secret-key-123") {
		t.Errorf("error leaks the api key: %v", err)
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Generate(context.Background(), "p")
	var gerr *Error
	if !errors.As(err, &gerr) || gerr.Code != ErrNotConfigured {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.retry = RetryConfig{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, BackoffFactor: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRetryConfigDelay(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for attempt, w := range want {
		if got := cfg.delay(attempt); got != w {
			t.Errorf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}

	cfg.JitterFraction = 0.2
	for range 50 {
		d := cfg.delay(0)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("jittered delay %v out of bounds", d)
		}
	}
}
