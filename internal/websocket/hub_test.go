package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sportsmatch/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) events.Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var e events.Event
		require.NoError(t, json.Unmarshal(raw, &e))
		return e
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
	return events.Event{}
}

func TestHub_PublishRespectsSubscriptions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	all := &Client{hub: hub, send: make(chan []byte, 4)}
	onlyM2 := &Client{hub: hub, send: make(chan []byte, 4), keys: map[string]struct{}{"m2": {}}}
	hub.register <- all
	hub.register <- onlyM2
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(ctx, events.Event{Type: events.MatchJoined, Key: "m1"}))
	require.NoError(t, hub.Publish(ctx, events.Event{Type: events.MatchLeft, Key: "m2"}))

	assert.Equal(t, "m1", receive(t, all).Key)
	assert.Equal(t, "m2", receive(t, all).Key)

	got := receive(t, onlyM2)
	assert.Equal(t, events.MatchLeft, got.Type)
	assert.Len(t, onlyM2.send, 0)

	hub.unregister <- all
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, open := <-all.send
	assert.False(t, open)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- c
	cancel()
	<-done

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.GetClientCount())
}
