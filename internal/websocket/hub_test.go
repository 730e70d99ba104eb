package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, _ := startHub(t)
	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	require.True(t, hub.Attach(a))
	require.True(t, hub.Attach(b))

	hub.Publish([]byte("hello"))

	assert.Equal(t, "hello", string(receive(t, a)))
	assert.Equal(t, "hello", string(receive(t, b)))
	assert.Equal(t, 2, hub.Clients())
}

func TestHubDetachClosesClient(t *testing.T) {
	hub, _ := startHub(t)
	a := NewClient(hub, nil)
	require.True(t, hub.Attach(a))

	hub.Detach(a)
	hub.Publish([]byte("after"))

	_, open := <-a.send
	assert.False(t, open)
	assert.False(t, a.Enqueue([]byte("late")))
	assert.Equal(t, 0, hub.Clients())
}

func TestHubStopClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	a := NewClient(hub, nil)
	require.True(t, hub.Attach(a))

	cancel()

	select {
	case _, open := <-a.send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client not closed on hub stop")
	}
	assert.False(t, hub.Attach(NewClient(hub, nil)))
}

func TestNewErrorMessage(t *testing.T) {
	var m struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(NewErrorMessage("bad"), &m))
	assert.Equal(t, "error", m.Event)
	assert.Equal(t, "bad", m.Data["message"])
}
