package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/daily-tracker/internal/blob"
	"github.com/yukikurage/daily-tracker/internal/logging"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/otp"
	"github.com/yukikurage/daily-tracker/internal/quota"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
)

type recordedEvent struct {
	Event string
	Data  any
}

// recordingBroadcaster stands in for the WebSocket hub.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Broadcast(event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Event: event, Data: data})
}

func (b *recordingBroadcaster) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.events))
	for _, e := range b.events {
		names = append(names, e.Event)
	}
	return names
}

type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *recordingNotifier) Deliver(_ context.Context, channel models.OTPChannel, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[string(channel)+":"+to] = code
	return nil
}

func (n *recordingNotifier) code(channel models.OTPChannel, to string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[string(channel)+":"+to]
}

type testEnv struct {
	router   *gin.Engine
	store    *repository.Store
	events   *recordingBroadcaster
	notifier *recordingNotifier
}

type envOptions struct {
	aiReply   func(req map[string]any) string
	chatLimit int
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.Discard()
	store := repository.New(nil, logger)
	events := &recordingBroadcaster{}
	notifier := &recordingNotifier{codes: map[string]string{}}

	storage, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	var aiService *services.AIService
	if opts.aiReply != nil {
		aiService = services.NewAIService("test-key", "gpt-4o-mini", newFakeOpenAI(t, opts.aiReply).URL+"/v1")
	}
	limit := opts.chatLimit
	if limit == 0 {
		limit = 50
	}

	router := NewRouter(Deps{
		Logger:       logger,
		Sessions:     cookie.NewStore([]byte("test-secret")),
		Store:        store,
		Events:       events,
		AuthService:  services.NewAuthService(store, otp.NewManager(store), notifier, logger),
		JobService:   services.NewJobService(store, aiService),
		TaskService:  services.NewTaskService(store),
		NoteService:  services.NewNoteService(store),
		DriveService: services.NewDriveService(store, storage, logger),
		AIService:    aiService,
		ChatService:  services.NewChatService(aiService, quota.NewCounter(), limit),
	})

	return &testEnv{
		router:   router,
		store:    store,
		events:   events,
		notifier: notifier,
	}
}

// newFakeOpenAI answers every chat completion with reply(request).
func newFakeOpenAI(t *testing.T, reply func(req map[string]any) string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
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
	return srv
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its id and session cookies.
func (e *testEnv) register(t *testing.T, email string) (string, []*http.Cookie) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "supersecret",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user map[string]any
	decode(t, w, &user)
	return user["id"].(string), w.Result().Cookies()
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}
