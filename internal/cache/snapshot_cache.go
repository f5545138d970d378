package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hirase-art/inventory-risk/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "inventory"
	scanBatchSize = 100
)

// Kind names one loaded input table.
type Kind string

const (
	KindMaster    Kind = "master"
	KindShipments Kind = "shipments"
	KindStock     Kind = "stock"
	KindInbound   Kind = "inbound"
)

var defaultTTLs = map[Kind]time.Duration{
	KindMaster:    600 * time.Second,
	KindShipments: 300 * time.Second,
	KindStock:     300 * time.Second,
	KindInbound:   300 * time.Second,
}

// Params distinguishes entries of the same kind, e.g. unit=set.
type Params map[string]string

// SnapshotCache is a read-through store for loaded input tables.
type SnapshotCache interface {
	Get(ctx context.Context, kind Kind, params Params, dest interface{}) (bool, error)
	Set(ctx context.Context, kind Kind, params Params, value interface{}) error
	InvalidateKind(ctx context.Context, kind Kind) error
	InvalidateAll(ctx context.Context) error
}

type redisSnapshotCache struct {
	client *redis.Client
	ttls   map[Kind]time.Duration
}

type noopSnapshotCache struct{}

func NewSnapshotCache(cfg config.CacheConfig) (SnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisSnapshotCache(client, TTLsFromConfig(cfg)), nil
}

// NewRedisSnapshotCache wraps an existing client. Kinds missing from ttls
// use the defaults.
func NewRedisSnapshotCache(client *redis.Client, ttls map[Kind]time.Duration) SnapshotCache {
	return &redisSnapshotCache{client: client, ttls: resolveTTLs(ttls)}
}

func NewNoopSnapshotCache() SnapshotCache {
	return &noopSnapshotCache{}
}

// TTLsFromConfig maps the configured seconds onto kinds.
func TTLsFromConfig(cfg config.CacheConfig) map[Kind]time.Duration {
	return map[Kind]time.Duration{
		KindMaster:    cfg.MasterTTL(),
		KindShipments: cfg.ShipmentsTTL(),
		KindStock:     cfg.StockTTL(),
		KindInbound:   cfg.StockTTL(),
	}
}

func (c *redisSnapshotCache) Get(ctx context.Context, kind Kind, params Params, dest interface{}) (bool, error) {
	key := BuildKey(kind, params)

	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", kind, err)
	}
	return true, nil
}

func (c *redisSnapshotCache) Set(ctx context.Context, kind Kind, params Params, value interface{}) error {
	key := BuildKey(kind, params)
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", kind, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttls[kind]).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSnapshotCache) InvalidateKind(ctx context.Context, kind Kind) error {
	return c.invalidate(ctx, fmt.Sprintf("%s:%s:", keyPrefix, kind))
}

func (c *redisSnapshotCache) InvalidateAll(ctx context.Context) error {
	return c.invalidate(ctx, keyPrefix+":")
}

func (c *redisSnapshotCache) invalidate(ctx context.Context, prefix string) error {
	removed, err := deleteKeysWithPrefix(ctx, c.client, prefix, scanBatchSize)
	if err != nil {
		return err
	}
	log.Debug().Str("prefix", prefix).Int("removed", removed).Msg("cache: invalidated")
	return nil
}

func (n *noopSnapshotCache) Get(ctx context.Context, kind Kind, params Params, dest interface{}) (bool, error) {
	return false, nil
}

func (n *noopSnapshotCache) Set(ctx context.Context, kind Kind, params Params, value interface{}) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateKind(ctx context.Context, kind Kind) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildKey returns inventory:<kind>:<hash of params>.
func BuildKey(kind Kind, params Params) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, paramsHash(params))
}

func paramsHash(params Params) string {
	parts := make([]string, 0, len(params))
	for k, v := range params {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		parts = append(parts, strings.ToLower(strings.TrimSpace(k))+"="+v)
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
