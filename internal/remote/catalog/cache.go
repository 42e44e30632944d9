package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyDisciplines = "catalog:disciplines"
	keyBetTypesAll = "catalog:bettypes:all"
)

func keyBetTypes(disciplineID int64) string {
	return "catalog:bettypes:" + strconv.FormatInt(disciplineID, 10)
}

// Cache guarda catálogos serializados em JSON no Redis com TTL.
type Cache struct{ R *redis.Client }

func NewCache(r *redis.Client) *Cache { return &Cache{R: r} }

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, key, b, ttl).Err()
}
