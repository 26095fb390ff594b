package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionTransitions(t *testing.T) {
	pending := &Connection{RequesterID: 1, RecipientID: 2, Status: ConnectionPending}

	// Recipient answers, requester withdraws.
	assert.True(t, pending.CanTransition(ConnectionAccepted, 2))
	assert.True(t, pending.CanTransition(ConnectionDeclined, 2))
	assert.True(t, pending.CanTransition(ConnectionWithdrawn, 1))

	assert.False(t, pending.CanTransition(ConnectionAccepted, 1))
	assert.False(t, pending.CanTransition(ConnectionDeclined, 1))
	assert.False(t, pending.CanTransition(ConnectionWithdrawn, 2))

	// A third party moves nothing.
	assert.False(t, pending.CanTransition(ConnectionAccepted, 3))
}

func TestConnectionTransitionsOnlyFromPending(t *testing.T) {
	for _, status := range []ConnectionStatus{ConnectionAccepted, ConnectionDeclined, ConnectionWithdrawn} {
		conn := &Connection{RequesterID: 1, RecipientID: 2, Status: status}
		assert.False(t, conn.CanTransition(ConnectionAccepted, 2), "from %s", status)
		assert.False(t, conn.CanTransition(ConnectionWithdrawn, 1), "from %s", status)
	}
}

func TestConnectionRejectsUnknownTarget(t *testing.T) {
	pending := &Connection{RequesterID: 1, RecipientID: 2, Status: ConnectionPending}
	assert.False(t, pending.CanTransition(ConnectionPending, 2))
	assert.False(t, pending.CanTransition("nonsense", 2))
}
