package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnbounded_FIFO(t *testing.T) {
	q := NewUnbounded[int]()
	for i := range 1000 {
		require.NoError(t, q.Send(i))
	}
	assert.Equal(t, 1000, q.Len())

	ctx := context.Background()
	for i := range 1000 {
		got, err := q.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestUnbounded_TryRecvEmpty(t *testing.T) {
	q := NewUnbounded[string]()
	_, ok := q.TryRecv()
	assert.False(t, ok)

	require.NoError(t, q.Send("a"))
	got, ok := q.TryRecv()
	assert.True(t, ok)
	assert.Equal(t, "a", got)
}

func TestUnbounded_RecvWaits(t *testing.T) {
	q := NewUnbounded[int]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Send(42)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := q.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestUnbounded_RecvContextCancelled(t *testing.T) {
	q := NewUnbounded[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUnbounded_Close(t *testing.T) {
	q := NewUnbounded[int]()
	require.NoError(t, q.Send(1))
	q.Close()
	q.Close() // idempotent

	assert.True(t, q.Closed())
	assert.ErrorIs(t, q.Send(2), ErrClosed)

	got, err := q.Recv(context.Background())
	require.NoError(t, err, "pending items survive close")
	assert.Equal(t, 1, got)

	_, err = q.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestUnbounded_PerSenderOrder(t *testing.T) {
	q := NewUnbounded[[2]int]()
	const senders, perSender = 8, 200

	var wg sync.WaitGroup
	for s := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perSender {
				_ = q.Send([2]int{s, i})
			}
		}()
	}
	wg.Wait()

	last := make(map[int]int)
	for s := range senders {
		last[s] = -1
	}
	for range senders * perSender {
		item, ok := q.TryRecv()
		require.True(t, ok)
		assert.Greater(t, item[1], last[item[0]], "sender %d out of order", item[0])
		last[item[0]] = item[1]
	}
}
