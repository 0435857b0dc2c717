package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yukikurage/daily-tracker/internal/logging"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(clock *testClock) *repository.Store {
	return repository.New(nil, logging.Discard(), repository.WithClock(clock.Now))
}

// recordingNotifier remembers the last code sent to each address.
type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: map[string]string{}}
}

func (n *recordingNotifier) Deliver(_ context.Context, channel models.OTPChannel, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes[string(channel)+":"+to] = code
	return nil
}

func (n *recordingNotifier) code(channel models.OTPChannel, to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[string(channel)+":"+to]
}

// newFakeOpenAI serves chat completions whose content is produced by reply.
// It records the decoded request bodies.
func newFakeOpenAI(t *testing.T, status int, reply func(req map[string]any) string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var mu sync.Mutex
	requests := []map[string]any{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply(req)},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestAIService(t *testing.T, status int, reply func(req map[string]any) string) (*AIService, *[]map[string]any) {
	srv, requests := newFakeOpenAI(t, status, reply)
	return NewAIService("test-key", "gpt-4o-mini", srv.URL+"/v1"), requests
}
