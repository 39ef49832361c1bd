package serving

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/cardiorisk/pkg/advice"
	"github.com/synaptica-ai/cardiorisk/pkg/serving/predictor"
)

// Outcome is the input-dependent part of an assessment. Identity, timing and
// patient fields are minted per request and never cached.
type Outcome struct {
	Prediction  predictor.Prediction `json:"prediction"`
	Findings    []advice.Finding     `json:"findings"`
	Suggestions []advice.Suggestion  `json:"suggestions,omitempty"`
}

// RedisCache keeps computed outcomes keyed by model and input.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Outcome, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var outcome Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, false, err
	}
	return &outcome, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, outcome *Outcome, ttl time.Duration) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
