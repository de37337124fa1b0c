//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/coffeeshop-api/internal/pkg/redistest"
)

func TestRedisRelay_FansOutAcrossInstances(t *testing.T) {
	const channel = "coffeeshop:notifications"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rdbA := redistest.New(t)
	rdbB := redistest.Clone(t, rdbA)

	hubA := NewHub()
	go hubA.Run(ctx)
	relayA := NewRedisRelay(rdbA, channel, hubA)
	go relayA.Run(ctx)

	hubB, srvB := newTestServer(t, false)
	relayB := NewRedisRelay(rdbB, channel, hubB)
	go relayB.Run(ctx)

	require.Eventually(t, func() bool {
		subs, err := rdbA.PubSubNumSub(ctx, channel).Result()
		return err == nil && subs[channel] == 2
	}, 5*time.Second, 50*time.Millisecond)

	tracker := dial(t, srvB)
	require.NoError(t, tracker.WriteJSON(command{Type: "joinOrder", OrderID: "abc"}))
	assert.Equal(t, "joined", readMessage(t, tracker).Event)

	require.NoError(t, relayA.Notify(ctx, OrderRoom("abc"), EventOrderUpdate, map[string]string{
		"orderId": "abc",
		"status":  "ready",
	}))

	msg := readMessage(t, tracker)
	assert.Equal(t, EventOrderUpdate, msg.Event)
	assert.Equal(t, OrderRoom("abc"), msg.Room)
	assert.Equal(t, map[string]any{"orderId": "abc", "status": "ready"}, msg.Data)
}
