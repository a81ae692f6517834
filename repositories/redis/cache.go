package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache stores disposable projections of the stores of record. Every entry can be
// rebuilt from its store, so a miss is never an error.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetJSON decodes the value under key into dst. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return false, errors.E(errors.Internal, "cannot decode cached "+key, err)
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *Cache) GetCardStatus(ctx context.Context, cardNumber string) (*models.CachedCardStatus, error) {
	var status models.CachedCardStatus
	ok, err := c.GetJSON(ctx, utils.CardStatusKey(cardNumber), &status)
	if err != nil || !ok {
		return nil, err
	}
	return &status, nil
}

func (c *Cache) SetCardStatus(ctx context.Context, status models.CachedCardStatus, ttl time.Duration) error {
	return c.SetJSON(ctx, utils.CardStatusKey(status.CardNumber), status, ttl)
}

func (c *Cache) GetCardData(ctx context.Context, cardNumber string) (*models.CachedCardData, error) {
	var data models.CachedCardData
	ok, err := c.GetJSON(ctx, utils.CardDataKey(cardNumber), &data)
	if err != nil || !ok {
		return nil, err
	}
	return &data, nil
}

func (c *Cache) SetCardData(ctx context.Context, data models.CachedCardData, ttl time.Duration) error {
	return c.SetJSON(ctx, utils.CardDataKey(data.CardNumber), data, ttl)
}

// GetFee returns the active fee and whether one is cached.
func (c *Cache) GetFee(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, utils.FeeKey()).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, errors.E(errors.Internal, "cannot decode cached fee", err)
	}
	return fee, true, nil
}

func (c *Cache) SetFee(ctx context.Context, fee decimal.Decimal, ttl time.Duration) error {
	return c.client.Set(ctx, utils.FeeKey(), fee.String(), ttl).Err()
}
