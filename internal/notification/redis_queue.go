package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisKey = "notifications:outbox"

	defaultPollTimeout = 5 * time.Second
)

// RedisQueue stores messages in a Redis list so that queued emails survive a
// restart. Push is LPUSH and Pop is BRPOP, giving FIFO order across any
// number of processes.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisQueue{
		client:      client,
		key:         key,
		pollTimeout: defaultPollTimeout,
	}
}

// WithPollTimeout sets the BRPOP timeout. Redis has one second resolution.
func (q *RedisQueue) WithPollTimeout(d time.Duration) *RedisQueue {
	q.pollTimeout = d
	return q
}

func (q *RedisQueue) Push(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push message: %w", err)
	}
	return nil
}

// Pop polls with BRPOP so that ctx cancellation is noticed within the poll
// timeout.
func (q *RedisQueue) Pop(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		result, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Message{}, ctxErr
			}
			return Message{}, fmt.Errorf("failed to pop message: %w", err)
		}

		// result is [key, value]
		if len(result) != 2 {
			return Message{}, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
		}

		var msg Message
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			return Message{}, fmt.Errorf("failed to decode message: %w", err)
		}
		return msg, nil
	}
}

// Len reports the number of queued messages.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
