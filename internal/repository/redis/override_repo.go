package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"voyago/travel-planner/internal/config"
	"voyago/travel-planner/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Key suffixes for the two override entries. Both hold serialized JSON
// maps keyed by currency code.
const (
	manualRatesKey = "rates:manual"
	enabledKey     = "rates:enabled"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// redisOverrideRepository implements repository.OverrideRepository on two
// Redis keys. Overrides are global to the installation, not per-trip, and
// survive across sessions.
type redisOverrideRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisOverrideRepository creates a new override repository.
func NewRedisOverrideRepository(client *redis.Client, prefix string) repository.OverrideRepository {
	if prefix == "" {
		prefix = "travel"
	}
	return &redisOverrideRepository{client: client, prefix: prefix}
}

func (r *redisOverrideRepository) key(suffix string) string {
	return r.prefix + ":" + suffix
}

// getJSON loads and unmarshals one entry into out. A missing key leaves
// out untouched; an unparseable value is logged and treated as absent so a
// corrupt entry never blocks the currency view.
func (r *redisOverrideRepository) getJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("WARN: malformed override data at %s, falling back to defaults: %v", key, err)
		return nil
	}
	return nil
}

func (r *redisOverrideRepository) setJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, raw, 0).Err()
}

func (r *redisOverrideRepository) GetManualRates(ctx context.Context) (map[string]float64, error) {
	rates := map[string]float64{}
	if err := r.getJSON(ctx, r.key(manualRatesKey), &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *redisOverrideRepository) SetManualRates(ctx context.Context, rates map[string]float64) error {
	return r.setJSON(ctx, r.key(manualRatesKey), rates)
}

func (r *redisOverrideRepository) GetEnabled(ctx context.Context) (map[string]bool, error) {
	enabled := map[string]bool{}
	if err := r.getJSON(ctx, r.key(enabledKey), &enabled); err != nil {
		return nil, err
	}
	return enabled, nil
}

func (r *redisOverrideRepository) SetEnabled(ctx context.Context, enabled map[string]bool) error {
	return r.setJSON(ctx, r.key(enabledKey), enabled)
}
