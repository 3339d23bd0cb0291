package notification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/eventhub-auth/internal/logging"
	"github.com/redmonkez12/eventhub-auth/internal/token"
)

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisQueue(client, "").WithPollTimeout(time.Second), mr
}

func TestRedisQueue_FIFO(t *testing.T) {
	q, mr := newTestRedisQueue(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := NewMessage("a@x.com", "tok-1", token.PurposeSignupVerification, now)
	second := NewMessage("b@x.com", "tok-2", token.PurposeForgotPassword, now)
	require.NoError(t, q.Push(ctx, first))
	require.NoError(t, q.Push(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists(DefaultRedisKey))

	got, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestRedisQueue_PopHonorsContext(t *testing.T) {
	q, _ := newTestRedisQueue(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

func TestRedisQueue_MalformedPayload(t *testing.T) {
	q, mr := newTestRedisQueue(t)

	_, err := mr.Lpush(DefaultRedisKey, "{not json")
	require.NoError(t, err)

	_, err = q.Pop(context.Background())
	assert.ErrorContains(t, err, "failed to decode message")
}

func TestRedisQueue_PushFailsWhenServerDown(t *testing.T) {
	q, mr := newTestRedisQueue(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := q.Push(ctx, NewMessage("a@x.com", "tok", token.PurposeSignupVerification, time.Now()))
	assert.ErrorContains(t, err, "failed to push message")
}

func TestDispatcher_WithRedisQueue(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	sender := newFlakySender(0, 1)
	d := NewDispatcher(q, sender, logging.Discard(), nil, testDispatcherConfig)

	d.Start(context.Background())
	defer d.Stop()

	d.Send(context.Background(), "a@x.com", "tok", token.PurposeSignupVerification)
	waitFor(t, sender.done, 1)

	delivered := sender.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, "a@x.com", delivered[0].To)
	assert.Equal(t, "tok", delivered[0].Token)
}
