package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"talkio_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayContract(t *testing.T) {
	runGatewayContract(t, func(t *testing.T, clock *testClock) Gateway {
		return NewMemoryGateway(WithClock(clock.Now))
	})
}

func TestMemoryGatewayExactWindowIsInclusive(t *testing.T) {
	clock := newTestClock()
	gw := NewMemoryGateway(WithClock(clock.Now))
	ctx := context.Background()

	sentAt := clock.Now()
	msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: 1, ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	clock.Set(sentAt.Add(models.EditWindow))
	edited, err := gw.EditMessage(ctx, msg.ID, "edge", 1)
	require.NoError(t, err)
	assert.NotNil(t, edited)
}

func TestMemoryGatewayCustomWindows(t *testing.T) {
	clock := newTestClock()
	gw := NewMemoryGateway(WithClock(clock.Now), WithWindows(Windows{Edit: time.Minute}))
	ctx := context.Background()

	sentAt := clock.Now()
	msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: 1, ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	clock.Set(sentAt.Add(2 * time.Minute))
	edited, err := gw.EditMessage(ctx, msg.ID, "late", 1)
	require.NoError(t, err)
	assert.Nil(t, edited)

	// delete window keeps its default
	ok, err := gw.DeleteMessage(ctx, msg.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryGatewayConcurrentEditAndDelete(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: 1, ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var deletes int
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = gw.EditMessage(ctx, msg.ID, "edited", 1)
		}()
		go func() {
			defer wg.Done()
			if ok, _ := gw.DeleteMessage(ctx, msg.ID, 1); ok {
				mu.Lock()
				deletes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, deletes)
	stored, err := gw.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	assert.Equal(t, models.DeletedTombstone, stored.Content)
}

func TestMemoryGatewayReturnsCopies(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()
	msg, err := gw.CreateMessage(ctx, models.NewMessage{SenderID: 1, ReceiverID: 2, Content: "hi"})
	require.NoError(t, err)

	msg.Content = "mutated"
	*msg.ReceiverID = 99

	stored, err := gw.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Content)
	assert.Equal(t, uint(2), *stored.ReceiverID)
}
