package service

import (
	"testing"
	"time"

	"botdeck/backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *WSHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WSHub) userConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID])
}

func TestHubEvictsSlowClientEverywhere(t *testing.T) {
	hub := NewWSHub(nil)
	go hub.Run()

	// A client whose buffer is already full, so the next broadcast evicts it
	client := &Client{Hub: hub, UserID: "user-1", Send: make(chan []byte, 1)}
	client.Send <- []byte("backlog")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.userConnCount("user-1") == 1
	}, time.Second, 5*time.Millisecond, "client should be registered")

	hub.Broadcast(model.WSMessage{Type: model.MessageTypePriceUpdate})

	require.Eventually(t, func() bool {
		return hub.clientCount() == 0
	}, time.Second, 5*time.Millisecond, "slow client should be evicted")

	// Eviction must clear the per-user index too, or direct sends hit a
	// closed channel
	assert.Equal(t, 0, hub.userConnCount("user-1"))
	assert.NotPanics(t, func() {
		hub.SendToUser("user-1", model.WSMessage{Type: model.MessageTypeBotUpdate})
	})
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewWSHub(nil)

	client := &Client{Hub: hub, UserID: "user-2", Send: make(chan []byte, 1)}
	hub.mu.Lock()
	hub.clients[client] = true
	hub.userConns[client.UserID] = []*Client{client}
	hub.removeClientLocked(client)
	// Second removal of an already-dropped client is a no-op
	assert.NotPanics(t, func() { hub.removeClientLocked(client) })
	hub.mu.Unlock()

	assert.Equal(t, 0, hub.clientCount())
	assert.Equal(t, 0, hub.userConnCount("user-2"))
}
