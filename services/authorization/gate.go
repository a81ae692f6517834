package authorization

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthRepository interface {
	GetAuthorization(ctx context.Context, cardNumber string) (*models.CardAuthorization, error)
	LastLog(ctx context.Context, cardNumber string) (*models.AuthorizationLog, error)
	InsertLog(ctx context.Context, log models.AuthorizationLog) error
	RecordDecision(ctx context.Context, log models.AuthorizationLog, auth models.CardAuthorization) error
}

// CardDirectory answers questions about cards owned by the card management service.
// GetCard returns nil when the card does not exist.
type CardDirectory interface {
	GetCard(ctx context.Context, cardNumber string) (*models.CardView, error)
}

type StatusCache interface {
	GetCardStatus(ctx context.Context, cardNumber string) (*models.CachedCardStatus, error)
	SetCardStatus(ctx context.Context, status models.CachedCardStatus, ttl time.Duration) error
}

// ApprovalPolicy decides whether an existing card may take part in transfers.
type ApprovalPolicy func(card models.CardView) bool

// AlwaysApprove approves every card that exists.
func AlwaysApprove(models.CardView) bool { return true }

// Gate decides whether a card may take part in a transfer. Decisions are read
// through the status cache and the persisted authorization, and written back to both.
type Gate struct {
	Logger   *zap.Logger
	Repo     AuthRepository
	Cards    CardDirectory
	Cache    StatusCache
	CacheTTL time.Duration
	Policy   ApprovalPolicy
	Now      func() time.Time
}

func NewGate(logger *zap.Logger, repo AuthRepository, cards CardDirectory, cache StatusCache, cacheTTL time.Duration) *Gate {
	return &Gate{
		Logger:   logger,
		Repo:     repo,
		Cards:    cards,
		Cache:    cache,
		CacheTTL: cacheTTL,
		Policy:   AlwaysApprove,
		Now:      time.Now,
	}
}

func (g *Gate) IsActive(ctx context.Context, cardNumber string) (bool, error) {
	cached, err := g.Cache.GetCardStatus(ctx, cardNumber)
	if err != nil {
		return false, err
	}
	if cached != nil {
		return cached.IsActive, nil
	}

	auth, err := g.Repo.GetAuthorization(ctx, cardNumber)
	if err != nil {
		return false, err
	}
	if auth != nil {
		return auth.IsActive, g.cacheStatus(ctx, cardNumber, auth.IsActive)
	}

	return g.Authorize(ctx, cardNumber)
}

// Authorize runs an authorization decision for the card. A card whose last
// decision was an approval stays approved without asking the card service again.
func (g *Gate) Authorize(ctx context.Context, cardNumber string) (bool, error) {
	last, err := g.Repo.LastLog(ctx, cardNumber)
	if err != nil {
		return false, err
	}
	if last != nil && last.IsAuthorized {
		return true, g.cacheStatus(ctx, cardNumber, true)
	}

	card, err := g.Cards.GetCard(ctx, cardNumber)
	if err != nil {
		return false, err
	}

	now := g.Now().UTC()
	if card == nil {
		g.Logger.Info("card not found", zap.String("card", utils.MaskCardNumber(cardNumber)))
		return false, g.Repo.InsertLog(ctx, models.AuthorizationLog{
			ID:         uuid.New(),
			CardNumber: cardNumber,
			Reason:     models.ReasonCardNotFound,
			CreatedAt:  now,
		})
	}

	approved := g.Policy(*card)
	reason := models.ReasonAuthorized
	if !approved {
		reason = models.ReasonAuthorizationFailed
	}

	err = g.Repo.RecordDecision(ctx,
		models.AuthorizationLog{ID: uuid.New(), CardNumber: cardNumber, IsAuthorized: approved, Reason: reason, CreatedAt: now},
		models.CardAuthorization{CardNumber: cardNumber, IsActive: approved, UpdatedAt: now},
	)
	if err != nil {
		return false, err
	}

	g.Logger.Info("card authorization decided", zap.String("card", utils.MaskCardNumber(cardNumber)), zap.String("reason", reason))
	return approved, g.cacheStatus(ctx, cardNumber, approved)
}

// HandleCardUpdated refreshes the cached status of a changed card.
func (g *Gate) HandleCardUpdated(ctx context.Context, event models.CardUpdated) error {
	auth, err := g.Repo.GetAuthorization(ctx, event.CardNumber)
	if err != nil {
		return err
	}
	if auth == nil {
		_, err = g.Authorize(ctx, event.CardNumber)
		return err
	}
	return g.cacheStatus(ctx, event.CardNumber, auth.IsActive)
}

func (g *Gate) cacheStatus(ctx context.Context, cardNumber string, active bool) error {
	return g.Cache.SetCardStatus(ctx, models.CachedCardStatus{CardNumber: cardNumber, IsActive: active}, g.CacheTTL)
}
