package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iot-aicha/stock-counter/pkg/logger"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHubService(2, logger.NewNopLogger())
	a := hub.Register()
	b := hub.Register()
	assert.Equal(t, 2, hub.GetClientCount())

	assert.Equal(t, 2, hub.Broadcast([]byte("one")))
	assert.Equal(t, []byte("one"), <-a.Messages())
	assert.Equal(t, []byte("one"), <-b.Messages())

	hub.Unregister(a)
	hub.Unregister(a)
	_, open := <-a.Messages()
	assert.False(t, open)
	assert.Equal(t, 1, hub.GetClientCount())
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHubService(1, logger.NewNopLogger())
	slow := hub.Register()
	fast := hub.Register()

	require.Equal(t, 2, hub.Broadcast([]byte("1")))
	<-fast.Messages()

	assert.Equal(t, 1, hub.Broadcast([]byte("2")))
	assert.Equal(t, 1, hub.GetClientCount())

	assert.Equal(t, []byte("1"), <-slow.Messages())
	_, open := <-slow.Messages()
	assert.False(t, open)
	assert.Equal(t, []byte("2"), <-fast.Messages())
}

func TestHubBroadcastJSON(t *testing.T) {
	hub := NewHubService(1, logger.NewNopLogger())
	c := hub.Register()

	n, err := hub.BroadcastJSON(map[string]string{"type": "new_processing"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.JSONEq(t, `{"type":"new_processing"}`, string(<-c.Messages()))

	_, err = hub.BroadcastJSON(func() {})
	assert.Error(t, err)

	hub.Close()
	assert.Zero(t, hub.GetClientCount())
}
