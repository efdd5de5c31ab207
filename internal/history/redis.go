package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valpere/perelay/internal/chat"
)

// RedisConfig points at the external KV collaborator.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" json:"addr"`
	Password string        `mapstructure:"password" json:"password"`
	DB       int           `mapstructure:"db" json:"db"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl"`
}

// Redis stores each conversation as one JSON value under conv:<id>.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis builds the store. TTL <= 0 keeps conversations indefinitely.
func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.TTL,
	}
}

func key(conversationID string) string { return "conv:" + conversationID }

func (r *Redis) Load(ctx context.Context, conversationID string) ([]chat.Turn, error) {
	raw, err := r.client.Get(ctx, key(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: load %s: %w", conversationID, err)
	}
	var turns []chat.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", conversationID, err)
	}
	return turns, nil
}

func (r *Redis) Save(ctx context.Context, conversationID string, turns []chat.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", conversationID, err)
	}
	if err := r.client.Set(ctx, key(conversationID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("history: save %s: %w", conversationID, err)
	}
	return nil
}

// Close releases the client connection pool.
func (r *Redis) Close() error { return r.client.Close() }
