// Package cache keeps read-through copies of order views in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

// Views live under order:view:{epoch}:{gen}:{id}. Delete bumps the order's
// generation and Clear bumps the epoch, so a view written by a reader that
// started before either is never looked up again and ages out by TTL.
const (
	keyEpoch   = "order:epoch"
	keyGen     = "order:gen:%d:%d"
	keyGenScan = "order:gen:*"
	keyView    = "order:view:%s:%d"
	scanBatch  = 100
)

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// OrderCache stores JSON-encoded orders under versioned keys.
type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewOrderCache(rdb *redis.Client, ttl time.Duration) *OrderCache {
	return &OrderCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached view, or nil and the version a fresh view must be
// stored under.
func (c *OrderCache) Get(ctx context.Context, id int64) (*domain.Order, string, error) {
	epoch, err := c.counter(ctx, keyEpoch)
	if err != nil {
		return nil, "", err
	}
	gen, err := c.counter(ctx, fmt.Sprintf(keyGen, epoch, id))
	if err != nil {
		return nil, "", err
	}
	version := fmt.Sprintf("%d:%d", epoch, gen)

	b, err := c.rdb.Get(ctx, fmt.Sprintf(keyView, version, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, nil
	}
	if err != nil {
		return nil, "", err
	}

	var o domain.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, "", fmt.Errorf("decode cached order %d: %w", id, err)
	}
	return &o, version, nil
}

func (c *OrderCache) Set(ctx context.Context, version string, o *domain.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(keyView, version, o.ID), b, c.ttl).Err()
}

// Delete moves each order to a new generation.
func (c *OrderCache) Delete(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	epoch, err := c.counter(ctx, keyEpoch)
	if err != nil {
		return err
	}
	pipe := c.rdb.Pipeline()
	for _, id := range ids {
		pipe.Incr(ctx, fmt.Sprintf(keyGen, epoch, id))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Clear starts a new epoch and drops generation counters of older ones.
func (c *OrderCache) Clear(ctx context.Context) error {
	epoch, err := c.rdb.Incr(ctx, keyEpoch).Result()
	if err != nil {
		return err
	}

	current := fmt.Sprintf("order:gen:%d:", epoch)
	iter := c.rdb.Scan(ctx, 0, keyGenScan, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		if strings.HasPrefix(iter.Val(), current) {
			continue
		}
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (c *OrderCache) counter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
