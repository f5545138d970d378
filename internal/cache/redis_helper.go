package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisHost = "127.0.0.1"
	defaultRedisPort = "6379"
	pingTimeout      = 5 * time.Second
)

// newRedisClient connects and pings. The client is closed when the ping
// fails.
func newRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", opts.Addr, err)
	}
	return client, nil
}

// buildRedisOptions prefers REDIS_URL and falls back to host/port fields.
func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(orDefault(cfg.RedisHost, defaultRedisHost), orDefault(cfg.RedisPort, defaultRedisPort)),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// resolveTTLs overlays the positive entries of ttls on defaultTTLs.
func resolveTTLs(ttls map[Kind]time.Duration) map[Kind]time.Duration {
	merged := make(map[Kind]time.Duration, len(defaultTTLs))
	for kind, ttl := range defaultTTLs {
		merged[kind] = ttl
	}
	for kind, ttl := range ttls {
		if ttl > 0 {
			merged[kind] = ttl
		}
	}
	return merged
}

// deleteKeysWithPrefix scans for prefix* and unlinks matches in batches.
// It returns the number of keys removed.
func deleteKeysWithPrefix(ctx context.Context, client *redis.Client, prefix string, batchSize int64) (int, error) {
	iter := client.Scan(ctx, 0, prefix+"*", batchSize).Iterator()

	removed := 0
	batch := make([]string, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis unlink failed: %w", err)
		}
		removed += len(batch)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= batchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan failed: %w", err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
