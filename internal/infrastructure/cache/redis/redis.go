package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/alimikegami/nextrans-go/config"
	"github.com/redis/go-redis/v9"
)

func CreateRedisClient(config *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisConfig.Address,
		Password: config.RedisConfig.Password,
		DB:       config.RedisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis at %s: %w", config.RedisConfig.Address, err)
	}

	return client, nil
}

// NotificationStore remembers processed notifications for ttl.
type NotificationStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func CreateNotificationStore(client redis.Cmdable, ttl time.Duration) *NotificationStore {
	return &NotificationStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *NotificationStore) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed keeps the time the notification was first processed.
func (s *NotificationStore) MarkProcessed(ctx context.Context, key string) error {
	return s.client.SetNX(ctx, key, time.Now().Unix(), s.ttl).Err()
}
