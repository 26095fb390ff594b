package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, client *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	return ev
}

func assertNoEvent(t *testing.T, client *websocket.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := client.ReadMessage()
	assert.Error(t, err)
}

func TestAttachReplacesSession(t *testing.T) {
	hub := NewHub(nil, nil)

	firstServer, firstClient := newSocketPair(t)
	secondServer, secondClient := newSocketPair(t)
	first := NewConnection(7, firstServer)
	second := NewConnection(7, secondServer)

	hub.Attach(first)
	hub.Attach(second)

	// The displaced socket is told why it went away.
	require.NoError(t, firstClient.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := firstClient.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4001), "expected close 4001, got %v", err)

	assert.Equal(t, []uint{7}, hub.ConnectedUserIDs())

	hub.Publish(Event{Type: EventUnreadCount, Unread: 3, TargetUserIDs: []uint{7}})
	ev := readEvent(t, secondClient)
	assert.Equal(t, EventUnreadCount, ev.Type)
	assert.Equal(t, int64(3), ev.Unread)
}

func TestRoomDeliveryExcludesSender(t *testing.T) {
	hub := NewHub(nil, nil)

	aServer, aClient := newSocketPair(t)
	bServer, bClient := newSocketPair(t)
	a := NewConnection(1, aServer)
	b := NewConnection(2, bServer)
	hub.Attach(a)
	hub.Attach(b)

	conversationID := uuid.NewString()
	hub.Subscribe(conversationID, a)
	hub.Subscribe(conversationID, b)

	hub.Publish(Event{
		Type:           EventTyping,
		ConversationID: conversationID,
		TypingUserID:   1,
		TTLMillis:      TypingTTLMillis,
		ExcludeUserID:  1,
	})

	ev := readEvent(t, bClient)
	assert.Equal(t, EventTyping, ev.Type)
	assert.Equal(t, uint(1), ev.TypingUserID)
	assert.Equal(t, TypingTTLMillis, ev.TTLMillis)

	assertNoEvent(t, aClient)
}

func TestUnsubscribeStopsRoomDelivery(t *testing.T) {
	hub := NewHub(nil, nil)

	server, client := newSocketPair(t)
	conn := NewConnection(4, server)
	hub.Attach(conn)

	conversationID := uuid.NewString()
	hub.Subscribe(conversationID, conn)
	hub.Unsubscribe(conversationID, conn)

	hub.Publish(Event{Type: EventTyping, ConversationID: conversationID, TypingUserID: 9})
	assertNoEvent(t, client)
}

func TestTargetedDeliverySkipsExcludedUser(t *testing.T) {
	hub := NewHub(nil, nil)

	aServer, aClient := newSocketPair(t)
	bServer, bClient := newSocketPair(t)
	hub.Attach(NewConnection(1, aServer))
	hub.Attach(NewConnection(2, bServer))

	hub.Publish(Event{
		Type:          EventMessagesRead,
		ReaderID:      1,
		TargetUserIDs: []uint{1, 2},
		ExcludeUserID: 1,
	})

	ev := readEvent(t, bClient)
	assert.Equal(t, EventMessagesRead, ev.Type)
	assert.Equal(t, uint(1), ev.ReaderID)

	assertNoEvent(t, aClient)
}

func TestDetachRemovesUserTopic(t *testing.T) {
	hub := NewHub(nil, nil)

	server, _ := newSocketPair(t)
	conn := NewConnection(5, server)
	hub.Attach(conn)
	hub.Detach(conn)

	assert.Empty(t, hub.ConnectedUserIDs())
	assert.False(t, hub.NotifyUser(5, []byte("{}")))
}

func TestReconcilePushesUnreadTotals(t *testing.T) {
	hub := NewHub(nil, func(userID uint) (int64, error) { return 42, nil })
	hub.reconcileEvery = 20 * time.Millisecond

	server, client := newSocketPair(t)
	hub.Attach(NewConnection(9, server))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	ev := readEvent(t, client)
	assert.Equal(t, EventUnreadCount, ev.Type)
	assert.Equal(t, int64(42), ev.Unread)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not shut down")
	}
}
