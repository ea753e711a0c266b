package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/traceleaf/dpp-backend/internal/logger"
)

const defaultQueueKey = "dpp:webhook:events"

type redisQueue struct {
	client *redis.Client
	key    string
	log    *logger.Logger
}

// NewRedisQueue connects to Redis and returns a list-backed queue. Events are
// pushed with LPUSH and consumed with a blocking BRPOP so multiple dispatcher
// instances can share the stream.
func NewRedisQueue(addr, password string, db int, key string, log *logger.Logger) (Queue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	if key == "" {
		key = defaultQueueKey
	}
	return &redisQueue{
		client: client,
		key:    key,
		log:    log.With("queue", "RedisQueue"),
	}, nil
}

func (q *redisQueue) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Name, err)
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

func (q *redisQueue) Pop(ctx context.Context) (*Event, error) {
	res, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected brpop reply of length %d", len(res))
	}
	var ev Event
	if err := json.Unmarshal([]byte(res[1]), &ev); err != nil {
		q.log.Warn("Dropping undecodable event", "error", err)
		return nil, nil
	}
	return &ev, nil
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}
