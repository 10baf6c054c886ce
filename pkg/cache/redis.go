package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-api/pkg/config"
)

// KeyPrefix namespaces every key written by the service.
const KeyPrefix = "timetable"

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Key joins parts into a namespaced cache key. Empty parts become "-" so
// positions stay stable.
func Key(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, KeyPrefix)
	for _, part := range parts {
		part = strings.ReplaceAll(strings.TrimSpace(part), ":", "_")
		if part == "" {
			part = "-"
		}
		segments = append(segments, part)
	}
	return strings.Join(segments, ":")
}

// Pattern returns a SCAN pattern matching every key under the given parts.
func Pattern(parts ...string) string {
	return Key(parts...) + ":*"
}
