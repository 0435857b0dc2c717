package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/daily-tracker/internal/logging"
	"github.com/yukikurage/daily-tracker/internal/models"
)

func TestPostmarkSendCode(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	sender := NewPostmarkSender("test-token", "noreply@example.com",
		WithEndpoint(server.URL), WithHTTPClient(server.Client()))

	require.NoError(t, sender.SendCode(context.Background(), "ada@example.com", "123456"))

	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, "ada@example.com", received.To)
	assert.Equal(t, "noreply@example.com", received.From)
	assert.Contains(t, received.TextBody, "123456")
	assert.Contains(t, received.HtmlBody, "123456")
}

func TestPostmarkAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	sender := NewPostmarkSender("test-token", "noreply@example.com", WithEndpoint(server.URL))
	err := sender.SendCode(context.Background(), "ada@example.com", "123456")
	assert.ErrorContains(t, err, "status 422")
}

func TestPostmarkNotConfigured(t *testing.T) {
	sender := NewPostmarkSender("", "noreply@example.com")
	assert.False(t, sender.Configured())
	assert.Error(t, sender.SendCode(context.Background(), "ada@example.com", "123456"))
}

func TestDispatcher(t *testing.T) {
	var buf bytes.Buffer
	phone := NewLogSender(logging.New(&buf, "info"), "phone")
	d := NewDispatcher(nil, phone)

	require.NoError(t, d.Deliver(context.Background(), models.OTPChannelPhone, "+15550100", "654321"))
	assert.Contains(t, buf.String(), "+15550100")
	assert.Contains(t, buf.String(), "654321")

	assert.Error(t, d.Deliver(context.Background(), models.OTPChannelEmail, "ada@example.com", "654321"))
	assert.Error(t, d.Deliver(context.Background(), models.OTPChannel("fax"), "x", "654321"))
}
