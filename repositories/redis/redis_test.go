package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"testing"
	"time"

	// Local Packages
	models "cardflow/models"

	// External Packages
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLockMutualExclusion(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	locks := NewLockManager(client)
	key := "card:111111111111111:lock"

	ok, err := locks.Acquire(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locks.Acquire(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, locks.Release(ctx, key))
	require.NoError(t, locks.Release(ctx, key))

	ok, err = locks.Acquire(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(31 * time.Second)
	ok, err = locks.Acquire(ctx, key, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock must self expire after its ttl")
}

func TestFraudGuardWindow(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)

	now := time.Unix(1_700_000_000, 0)
	guard := NewFraudGuard(client, zap.NewNop())
	guard.Now = func() time.Time { return now }

	window := 60 * time.Second
	amount := decimal.RequireFromString("25.00")

	dup, err := guard.IsDuplicate(ctx, "111111111111111", "222222222222222", amount, window)
	require.NoError(t, err)
	assert.False(t, dup)

	now = now.Add(30 * time.Second)
	dup, err = guard.IsDuplicate(ctx, "111111111111111", "222222222222222", decimal.RequireFromString("25"), window)
	require.NoError(t, err)
	assert.True(t, dup, "same pair inside the window")

	dup, err = guard.IsDuplicate(ctx, "111111111111111", "333333333333333", amount, window)
	require.NoError(t, err)
	assert.False(t, dup, "different recipient")

	dup, err = guard.IsDuplicate(ctx, "111111111111111", "222222222222222", decimal.RequireFromString("25.01"), window)
	require.NoError(t, err)
	assert.False(t, dup, "different amount")

	// The first entry keeps its original timestamp, so it leaves the window 60s after it was made.
	now = time.Unix(1_700_000_060, 0)
	dup, err = guard.IsDuplicate(ctx, "111111111111111", "222222222222222", amount, window)
	require.NoError(t, err)
	assert.False(t, dup, "window elapsed")

	now = now.Add(time.Second)
	dup, err = guard.IsDuplicate(ctx, "111111111111111", "222222222222222", amount, window)
	require.NoError(t, err)
	assert.True(t, dup, "window re-armed")
}

func TestFraudGuardSetExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	guard := NewFraudGuard(client, zap.NewNop())

	_, err := guard.IsDuplicate(ctx, "111111111111111", "222222222222222", decimal.NewFromInt(5), time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("card:111111111111111:fraud"))
	assert.Equal(t, time.Minute, mr.TTL("card:111111111111111:fraud"))
}

func TestCacheCardEntries(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	cache := NewCache(client)

	status, err := cache.GetCardStatus(ctx, "111111111111111")
	require.NoError(t, err)
	assert.Nil(t, status)

	require.NoError(t, cache.SetCardStatus(ctx, models.CachedCardStatus{CardNumber: "111111111111111", IsActive: true}, time.Minute))
	status, err = cache.GetCardStatus(ctx, "111111111111111")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.True(t, status.IsActive)

	data := models.CachedCardData{CardNumber: "111111111111111", Balance: decimal.NewFromInt(500), CreditLimit: decimal.NewFromInt(1000), UsedCredit: decimal.Zero}
	require.NoError(t, cache.SetCardData(ctx, data, time.Minute))
	got, err := cache.GetCardData(ctx, "111111111111111")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Balance.Equal(data.Balance))
	assert.True(t, got.CreditLimit.Equal(data.CreditLimit))

	mr.FastForward(2 * time.Minute)
	got, err = cache.GetCardData(ctx, "111111111111111")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheFee(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	cache := NewCache(client)

	_, ok, err := cache.GetFee(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetFee(ctx, decimal.RequireFromString("1.2345"), 2*time.Hour))
	fee, ok, err := cache.GetFee(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.2345", fee.String())
	assert.Equal(t, 2*time.Hour, mr.TTL("fee"))

	require.NoError(t, mr.Set("fee", "not-a-number"))
	_, _, err = cache.GetFee(ctx)
	assert.Error(t, err)
}

func TestDeadLetterQueue(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	dlq := NewDeadLetterQueue(client, zap.NewNop(), "cardflow:dlq")

	require.NoError(t, dlq.Send(ctx, nil))
	require.NoError(t, dlq.Send(ctx, []models.FailedRecord{{
		Record:   models.Record{Topic: models.TopicWithdrawFunds, Key: []byte("tx-1"), Value: []byte(`{}`)},
		Error:    "boom",
		FailedAt: time.Unix(1_700_000_000, 0).UTC(),
	}}))

	list, err := mr.List("cardflow:dlq")
	require.NoError(t, err)
	require.Len(t, list, 1)

	var stored models.FailedRecord
	require.NoError(t, json.Unmarshal([]byte(list[0]), &stored))
	assert.Equal(t, "boom", stored.Error)
	assert.Equal(t, models.TopicWithdrawFunds, stored.Record.Topic)
	assert.Equal(t, []byte("tx-1"), stored.Record.Key)
}

func TestDeadLetterQueueReportsUnstoredRecords(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	dlq := NewDeadLetterQueue(client, zap.NewNop(), "cardflow:dlq")
	mr.Close()

	err := dlq.Send(ctx, []models.FailedRecord{{
		Record: models.Record{Topic: models.TopicRefundRequested, Key: []byte("tx-1"), Value: []byte(`{}`)},
		Error:  "refund rejected: Card not found",
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored 0 of 1")
}
