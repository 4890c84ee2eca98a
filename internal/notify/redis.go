package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"hotlabcore/pkg/domain"
)

// DefaultAlertStream is the Redis Stream alerts are appended to when no
// stream name is configured.
const DefaultAlertStream = "hotlab:alerts"

// RedisConfig holds connection settings for the stream notifier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// RedisNotifier appends alerts to a Redis Stream via XADD. Downstream
// consumers (dashboards, pagers) read the stream with consumer groups.
type RedisNotifier struct {
	client *redis.Client
	stream string
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(ctx context.Context, cfg RedisConfig) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	stream := cfg.Stream
	if stream == "" {
		stream = DefaultAlertStream
	}
	return &RedisNotifier{client: client, stream: stream}, nil
}

// NewRedisNotifierWithClient wraps an existing client, mainly for tests.
func NewRedisNotifierWithClient(client *redis.Client, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultAlertStream
	}
	return &RedisNotifier{client: client, stream: stream}
}

// Notify serialises the alert and appends it to the stream.
func (n *RedisNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]interface{}{
			"kind":      string(alert.Kind),
			"data":      string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// Close releases the connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
