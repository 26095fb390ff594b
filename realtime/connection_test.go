package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSocketPair upgrades a real websocket and returns both ends: the server
// side (what a Connection wraps) and the client side (what a browser holds).
func newSocketPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- ws
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-serverConns:
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server side of the socket")
		return nil, nil
	}
}

func TestSendConcurrentWithClose(t *testing.T) {
	payload := []byte(`{"type":"connected"}`)

	for i := 0; i < 10; i++ {
		server, _ := newSocketPair(t)
		conn := NewConnection(1, server)
		conn.Start()

		var wg sync.WaitGroup
		panics := make(chan interface{}, 4)
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						panics <- r
					}
				}()
				<-start
				for j := 0; j < 200; j++ {
					_ = conn.Send(payload)
				}
			}()
		}

		close(start)
		conn.Close(websocket.CloseNormalClosure, "bye")
		wg.Wait()

		select {
		case r := <-panics:
			t.Fatalf("Send panicked during Close: %v", r)
		default:
		}
	}
}

func TestSendAfterCloseErrors(t *testing.T) {
	server, _ := newSocketPair(t)
	conn := NewConnection(1, server)
	conn.Start()
	conn.Close(websocket.CloseNormalClosure, "bye")

	// The write loop is gone, so at most the buffer can absorb sends; past
	// that every call must report the closed connection rather than block.
	var errs int
	for i := 0; i < 256; i++ {
		if err := conn.Send([]byte("x")); err != nil {
			errs++
		}
	}
	assert.Greater(t, errs, 0)
}

func TestSendClosesSlowConnection(t *testing.T) {
	server, _ := newSocketPair(t)
	conn := NewConnection(1, server)
	// No Start: nothing drains the buffer, standing in for a stalled client.

	var err error
	for i := 0; i < 256; i++ {
		if err = conn.Send([]byte("x")); err != nil {
			break
		}
	}
	require.Error(t, err)

	select {
	case <-conn.close:
	default:
		t.Fatal("overflowing the send buffer should close the connection")
	}
}
