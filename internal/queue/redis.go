package queue

import (
	"context"
	"fmt"

	"github.com/idhub/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

// RedisPublisher pushes messages onto a Redis list named after the queue.
// Consumers pop from the other end (BRPOP), giving FIFO order.
type RedisPublisher struct {
	client *redis.Client
	queue  string
}

func NewRedisPublisher(ctx context.Context, url, queueName string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis publisher ready", map[string]interface{}{
		"queue": queueName,
	})
	return NewRedisPublisherFromClient(client, queueName), nil
}

func NewRedisPublisherFromClient(client *redis.Client, queueName string) *RedisPublisher {
	return &RedisPublisher{client: client, queue: queueName}
}

func (p *RedisPublisher) PublishAnalysis(ctx context.Context, msg AnalysisMessage) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	if err := p.client.LPush(ctx, p.queue, body).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", p.queue, err)
	}
	return nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
