package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func statsKey(userID string) string {
	return fmt.Sprintf("stats:user:%s", userID)
}

func (c *Client) SetUserStats(ctx context.Context, userID string, stats interface{}, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	err = c.client.Set(ctx, statsKey(userID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set stats cache: %w", err)
	}

	logger.Debug("User stats cached", zap.String("user_id", userID), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetUserStats(ctx context.Context, userID string, stats interface{}) (bool, error) {
	data, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get stats cache: %w", err)
	}

	err = json.Unmarshal(data, stats)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	logger.Debug("User stats cache hit", zap.String("user_id", userID))
	return true, nil
}
