package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, now: time.Now}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NextTripSequence increments the company's trip counter. A missing counter is first seeded
// with SETNX, so concurrent seeders agree on one starting value.
func (c *RedisCache) NextTripSequence(ctx context.Context, companyID string, seed func(context.Context) (int64, error)) (int64, error) {
	key := tripSequenceKey(companyID)
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		start, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed trip sequence: %w", err)
		}
		if err := c.client.SetNX(ctx, key, start, 0).Err(); err != nil {
			return 0, err
		}
	}
	return c.client.Incr(ctx, key).Result()
}

func (c *RedisCache) RecentAccounts(ctx context.Context, device string) ([]domain.RecentAccount, error) {
	return readRecent(ctx, c.client, recentAccountsKey(device))
}

// AddRecentAccount replaces any entry with the same id and appends the account stamped with now.
func (c *RedisCache) AddRecentAccount(ctx context.Context, device string, account domain.RecentAccount) error {
	account.LastLoginAt = c.now().UTC()
	return c.updateRecent(ctx, device, func(list []domain.RecentAccount) []domain.RecentAccount {
		return upsertRecent(list, account)
	})
}

func (c *RedisCache) RemoveRecentAccount(ctx context.Context, device, id string) error {
	return c.updateRecent(ctx, device, func(list []domain.RecentAccount) []domain.RecentAccount {
		return removeRecent(list, id)
	})
}

// updateRecent rewrites the list under WATCH. A concurrent writer aborts the transaction
// with domain.ErrConflict rather than being overwritten.
func (c *RedisCache) updateRecent(ctx context.Context, device string, change func([]domain.RecentAccount) []domain.RecentAccount) error {
	key := recentAccountsKey(device)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		list, err := readRecent(ctx, tx, key)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(change(list))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: recent accounts changed concurrently", domain.ErrConflict)
	}
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readRecent(ctx context.Context, client getter, key string) ([]domain.RecentAccount, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []domain.RecentAccount{}, nil
		}
		return nil, err
	}

	var list []domain.RecentAccount
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode recent accounts: %w", err)
	}
	return list, nil
}

func upsertRecent(list []domain.RecentAccount, account domain.RecentAccount) []domain.RecentAccount {
	return append(removeRecent(list, account.ID), account)
}

func removeRecent(list []domain.RecentAccount, id string) []domain.RecentAccount {
	out := make([]domain.RecentAccount, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func tripSequenceKey(companyID string) string {
	return fmt.Sprintf("seq:trips:%s", companyID)
}

func recentAccountsKey(device string) string {
	return fmt.Sprintf("recent_accounts:%s", device)
}
