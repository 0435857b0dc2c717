package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/daily-tracker/internal/logging"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c2)
	hub.Unregister(c2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcast(t *testing.T) {
	hub := NewHub(logging.Discard())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)
	defer hub.Unregister(c1)
	defer hub.Unregister(c2)

	hub.Broadcast("job:created", map[string]any{"id": "j1", "title": "Engineer"})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.send:
			var got struct {
				Event string         `json:"event"`
				Data  map[string]any `json:"data"`
			}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "job:created", got.Event)
			assert.Equal(t, "j1", got.Data["id"])
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(logging.Discard())
	assert.NotPanics(t, func() { hub.Broadcast("note:deleted", map[string]string{"id": "n1"}) })
}

func TestBroadcastUnserializable(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Broadcast("bad", make(chan int))
	assert.Empty(t, c.send)
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	for i := 0; i < sendBufferSize+1; i++ {
		hub.Broadcast("task:updated", i)
	}
	assert.Len(t, c.send, sendBufferSize)
}

func TestHandlePing(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub)
	hub.Register(c)

	c.handle([]byte(`{"type":"hello"}`))
	c.handle([]byte(`not json`))
	assert.Empty(t, c.send)

	c.handle([]byte(`{"type":"ping"}`))
	require.Len(t, c.send, 1)
	assert.JSONEq(t, `{"type":"pong"}`, string(<-c.send))
}

func TestHandlePingAfterUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)

	assert.NotPanics(t, func() { c.handle([]byte(`{"type":"ping"}`)) })
}

func TestWriteFailureDropsClient(t *testing.T) {
	hub := NewHub(logging.Discard())

	accepted := make(chan *ws.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	defer srv.Close()

	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer dialCancel()
	peer, _, err := ws.Dial(dialCtx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer peer.CloseNow()

	var conn *ws.Conn
	select {
	case conn = <-accepted:
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted the connection")
	}
	// every later write on this side fails
	conn.CloseNow()

	c := NewClient(hub, conn)
	hub.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		c.writePump(ctx, cancel)
		close(done)
	}()

	hub.Broadcast("task:created", map[string]string{"id": "t1"})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("write pump kept running after a failed write")
	}
	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, ctx.Err(), context.Canceled, "the read pump is told to stop")

	assert.NotPanics(t, func() { hub.Broadcast("task:updated", map[string]string{"id": "t1"}) })
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(logging.Discard())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast("test", nil)
			hub.Unregister(c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHandleWebSocket(t *testing.T) {
	hub := NewHub(logging.Discard())
	srv := httptest.NewServer(HandleWebSocket(hub, []string{"*"}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Write(ctx, ws.MessageText, []byte(`{"type":"ping"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))

	hub.Broadcast("folder:created", map[string]string{"id": "f1"})
	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"folder:created","data":{"id":"f1"}}`, string(data))

	conn.Close(ws.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
