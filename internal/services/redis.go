package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CountOTPRequest bumps the fixed-window issuance counter for an email and
// returns the new count. The window TTL is set when the first request of the
// window creates the key.
func CountOTPRequest(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("otp:requests:%s", strings.ToLower(email))

	count, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := RedisClient.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}
