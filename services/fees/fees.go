package fees

import (
	// Go Internal Packages
	"context"
	"math/rand/v2"
	"time"

	// Local Packages
	models "cardflow/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type FeeRepository interface {
	LatestFee(ctx context.Context) (*models.Fee, error)
	InsertFee(ctx context.Context, fee models.Fee) error
}

type FeeCache interface {
	GetFee(ctx context.Context) (decimal.Decimal, bool, error)
	SetFee(ctx context.Context, fee decimal.Decimal, ttl time.Duration) error
}

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

var two = decimal.NewFromInt(2)

// Updater periodically replaces the transfer fee with a random multiple of the
// previous one and announces it with FeeUpdated.
type Updater struct {
	Logger    *zap.Logger
	Repo      FeeRepository
	Publisher Publisher
	Interval  time.Duration
	Random    func() float64
	Now       func() time.Time
}

func NewUpdater(logger *zap.Logger, repo FeeRepository, publisher Publisher, interval time.Duration) *Updater {
	return &Updater{
		Logger:    logger,
		Repo:      repo,
		Publisher: publisher,
		Interval:  interval,
		Random:    rand.Float64,
		Now:       time.Now,
	}
}

// Run updates the fee right away and then once per interval until ctx is done.
// A failed round is logged and the next tick tries again.
func (u *Updater) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.Interval)
	defer ticker.Stop()

	for {
		if _, err := u.UpdateFee(ctx); err != nil {
			u.Logger.Error("failed to update fee", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// UpdateFee computes, stores and publishes the next fee: the last fee times a
// factor in [0, 2), or the factor alone when there is no history.
func (u *Updater) UpdateFee(ctx context.Context) (decimal.Decimal, error) {
	last, err := u.Repo.LatestFee(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	factor := decimal.NewFromFloat(u.Random()).Mul(two)
	next := factor
	if last != nil {
		next = last.Value.Mul(factor)
	}
	next = next.Round(4)

	if err = u.Repo.InsertFee(ctx, models.Fee{Value: next, CreatedAt: u.Now().UTC()}); err != nil {
		return decimal.Zero, err
	}
	if err = u.Publisher.Publish(ctx, models.FeeUpdated{Value: next}); err != nil {
		return decimal.Zero, err
	}

	u.Logger.Info("fee updated", zap.String("fee", next.String()))
	return next, nil
}

// Reader serves the active fee from the cache, falling back to the fee history.
// A zero fee counts as unknown.
type Reader struct {
	Repo  FeeRepository
	Cache FeeCache
	TTL   time.Duration
}

func NewReader(repo FeeRepository, cache FeeCache, ttl time.Duration) *Reader {
	return &Reader{Repo: repo, Cache: cache, TTL: ttl}
}

func (r *Reader) CurrentFee(ctx context.Context) (decimal.Decimal, bool, error) {
	fee, ok, err := r.Cache.GetFee(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	if ok {
		return fee, !fee.IsZero(), nil
	}

	last, err := r.Repo.LatestFee(ctx)
	if err != nil || last == nil {
		return decimal.Zero, false, err
	}
	if err = r.Cache.SetFee(ctx, last.Value, r.TTL); err != nil {
		return decimal.Zero, false, err
	}
	return last.Value, !last.Value.IsZero(), nil
}

// HandleFeeUpdated caches the announced fee.
func (r *Reader) HandleFeeUpdated(ctx context.Context, event models.FeeUpdated) error {
	return r.Cache.SetFee(ctx, event.Value, r.TTL)
}
