package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_BroadcastDropsSlowClientWithoutStalling(t *testing.T) {
	h := NewHub(nil, zap.NewNop())

	// A client whose send channel is never drained.
	slow := &Client{hub: h, chatID: -1001, userID: 7, send: make(chan []byte)}
	h.register <- slow

	h.Broadcast(-1001, Envelope{Type: "round_status", Payload: map[string]int{"n": 1}})

	// The hub must keep serving registrations after shedding the slow
	// client rather than wedging on its own unregister channel.
	healthy := &Client{hub: h, chatID: -1001, userID: 8, send: make(chan []byte, 4)}
	select {
	case h.register <- healthy:
	case <-time.After(2 * time.Second):
		t.Fatal("hub stopped accepting clients after a slow-client broadcast")
	}

	h.Broadcast(-1001, Envelope{Type: "round_status", Payload: map[string]int{"n": 2}})

	select {
	case _, ok := <-slow.send:
		require.False(t, ok, "slow client channel should be closed, not written")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}

	select {
	case data := <-healthy.send:
		require.Contains(t, string(data), "round_status")
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast did not reach the remaining client")
	}
}

func TestHub_DropIsIdempotent(t *testing.T) {
	h := NewHub(nil, zap.NewNop())

	c := &Client{hub: h, chatID: -1001, userID: 7, send: make(chan []byte, 1)}
	h.register <- c

	// Round-trip a broadcast so the registration is known to be applied.
	h.Broadcast(-1001, Envelope{Type: "round_status"})
	select {
	case <-c.send:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}

	h.drop(c)
	h.drop(c)

	_, ok := <-c.send
	require.False(t, ok)
}
