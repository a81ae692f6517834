package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"strconv"
	"time"

	// Local Packages
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FraudGuard remembers recent (recipient, amount) pairs per sender in a sorted set
// scored by unix seconds. Callers hold the sender lock, so the prune/scan/insert
// sequence does not race with itself for one sender.
type FraudGuard struct {
	client *redis.Client
	logger *zap.Logger
	Now    func() time.Time
}

func NewFraudGuard(client *redis.Client, logger *zap.Logger) *FraudGuard {
	return &FraudGuard{client: client, logger: logger, Now: time.Now}
}

// IsDuplicate reports whether sender already sent amount to recipient within the
// window. When it did not, the transfer is recorded and the window starts now.
func (g *FraudGuard) IsDuplicate(ctx context.Context, sender, recipient string, amount decimal.Decimal, window time.Duration) (bool, error) {
	key := utils.CardFraudKey(sender)
	now := g.Now().Unix()
	cutoff := now - int64(window/time.Second)

	if err := g.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return false, err
	}

	members, err := g.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return false, err
	}
	for _, member := range members {
		var entry models.CachedFraudEntry
		if err = json.Unmarshal([]byte(member), &entry); err != nil {
			g.logger.Warn("skipping unreadable fraud entry", zap.String("key", key), zap.Error(err))
			continue
		}
		if entry.Matches(recipient, amount) {
			return true, nil
		}
	}

	entry, err := json.Marshal(models.CachedFraudEntry{Timestamp: now, Amount: amount, RecipientNumber: recipient})
	if err != nil {
		return false, err
	}

	_, err = g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: entry})
		pipe.Expire(ctx, key, window)
		return nil
	})
	return false, err
}
