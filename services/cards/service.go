package cards

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CardRepository interface {
	CreateCard(ctx context.Context, card models.Card) error
	GetCard(ctx context.Context, cardNumber string) (*models.Card, error)
	UpdateCard(ctx context.Context, card models.Card, log *models.CardLog) error
	Withdraw(ctx context.Context, op models.LedgerOperation) (models.LedgerOutcome, error)
	Deposit(ctx context.Context, op models.LedgerOperation) (models.LedgerOutcome, error)
	CardLogs(ctx context.Context, cardNumber string) ([]models.CardLog, error)
}

type CardCache interface {
	GetCardData(ctx context.Context, cardNumber string) (*models.CachedCardData, error)
	SetCardData(ctx context.Context, data models.CachedCardData, ttl time.Duration) error
}

type FeeReader interface {
	CurrentFee(ctx context.Context) (decimal.Decimal, bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Service owns card state: the management commands and the ledger steps of the saga.
type Service struct {
	Logger    *zap.Logger
	Repo      CardRepository
	Cache     CardCache
	Fees      FeeReader
	Publisher Publisher
	CacheTTL  time.Duration
	Now       func() time.Time
}

func NewService(logger *zap.Logger, repo CardRepository, cache CardCache, fees FeeReader, publisher Publisher, cacheTTL time.Duration) *Service {
	return &Service{
		Logger:    logger,
		Repo:      repo,
		Cache:     cache,
		Fees:      fees,
		Publisher: publisher,
		CacheTTL:  cacheTTL,
		Now:       time.Now,
	}
}

// CreateCard issues a new card. A missing credit limit means no credit line.
func (s *Service) CreateCard(ctx context.Context, cmd models.CreateCardCommand) (models.CardView, error) {
	if err := cmd.Validate(); err != nil {
		return models.CardView{}, errors.ValidationFailedErr(err)
	}

	now := s.Now().UTC()
	card := models.Card{
		CardNumber: cmd.CardNumber,
		Balance:    cmd.InitialBalance,
		UsedCredit: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if cmd.CreditLimit != nil {
		card.CreditLimit = *cmd.CreditLimit
	}

	if err := s.Repo.CreateCard(ctx, card); err != nil {
		return models.CardView{}, err
	}

	s.Logger.Info("card created", zap.String("card", utils.MaskCardNumber(card.CardNumber)))
	s.announce(ctx, &card)
	return card.View(), nil
}

// UpdateCard reports false when there is nothing to change or the card does not exist.
func (s *Service) UpdateCard(ctx context.Context, cmd models.UpdateCardCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, errors.ValidationFailedErr(err)
	}
	if cmd.Balance == nil && cmd.CreditLimit == nil {
		return false, nil
	}

	card, err := s.Repo.GetCard(ctx, cmd.CardNumber)
	if err != nil || card == nil {
		return false, err
	}

	now := s.Now().UTC()
	var log *models.CardLog
	changed := false
	if cmd.Balance != nil && !cmd.Balance.Equal(card.Balance) {
		log = &models.CardLog{
			ID:         uuid.New(),
			CardNumber: card.CardNumber,
			Amount:     cmd.Balance.Sub(card.Balance),
			Type:       models.LogBalanceUpdate,
			CreatedAt:  now,
		}
		card.Balance = *cmd.Balance
		changed = true
	}
	if cmd.CreditLimit != nil && !cmd.CreditLimit.Equal(card.CreditLimit) {
		if cmd.CreditLimit.LessThan(card.UsedCredit) {
			ve := errors.ValidationErrs()
			ve.Add("credit_limit", "cannot be below the used credit of "+card.UsedCredit.String())
			return false, errors.ValidationFailedErr(ve.Err())
		}
		card.CreditLimit = *cmd.CreditLimit
		changed = true
	}
	if !changed {
		return false, nil
	}

	card.UpdatedAt = now
	if err = s.Repo.UpdateCard(ctx, *card, log); err != nil {
		if errors.IsKind(err, errors.NotFound) {
			return false, nil
		}
		return false, err
	}

	s.Logger.Info("card updated", zap.String("card", utils.MaskCardNumber(card.CardNumber)))
	s.announce(ctx, card)
	return true, nil
}

// GetCard returns nil when the card does not exist.
func (s *Service) GetCard(ctx context.Context, cardNumber string) (*models.CardView, error) {
	cached, err := s.Cache.GetCardData(ctx, cardNumber)
	if err != nil {
		s.Logger.Warn("card cache read failed", zap.String("card", utils.MaskCardNumber(cardNumber)), zap.Error(err))
	}
	if cached != nil {
		card := models.Card{CardNumber: cached.CardNumber, Balance: cached.Balance, CreditLimit: cached.CreditLimit, UsedCredit: cached.UsedCredit}
		view := card.View()
		return &view, nil
	}

	card, err := s.Repo.GetCard(ctx, cardNumber)
	if err != nil || card == nil {
		return nil, err
	}
	s.cache(ctx, card)

	view := card.View()
	return &view, nil
}

// CardLogs returns the balance history of an existing card, newest first.
func (s *Service) CardLogs(ctx context.Context, cardNumber string) ([]models.CardLog, error) {
	card, err := s.Repo.GetCard(ctx, cardNumber)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, errors.NotFoundErr("card", cardNumber)
	}
	return s.Repo.CardLogs(ctx, cardNumber)
}

// HandleCardUpdated merges the announced state into the cached card data. Credit
// fields missing from the event keep their cached values.
func (s *Service) HandleCardUpdated(ctx context.Context, event models.CardUpdated) error {
	data := models.CachedCardData{CardNumber: event.CardNumber, Balance: event.Balance}

	cached, err := s.Cache.GetCardData(ctx, event.CardNumber)
	if err != nil {
		return err
	}
	if cached != nil {
		data.CreditLimit = cached.CreditLimit
		data.UsedCredit = cached.UsedCredit
	}
	if event.CreditLimit != nil {
		data.CreditLimit = *event.CreditLimit
	}
	if event.UsedCredit != nil {
		data.UsedCredit = *event.UsedCredit
	}

	return s.Cache.SetCardData(ctx, data, s.CacheTTL)
}

// announce caches the card and publishes CardUpdated. Both are best effort since
// the ledger change is already committed.
func (s *Service) announce(ctx context.Context, card *models.Card) {
	s.cache(ctx, card)
	if err := s.Publisher.Publish(ctx, models.CardUpdatedFrom(card)); err != nil {
		s.Logger.Error("failed to publish card update", zap.String("card", utils.MaskCardNumber(card.CardNumber)), zap.Error(err))
	}
}

func (s *Service) cache(ctx context.Context, card *models.Card) {
	if err := s.Cache.SetCardData(ctx, card.Snapshot(), s.CacheTTL); err != nil {
		s.Logger.Warn("card cache write failed", zap.String("card", utils.MaskCardNumber(card.CardNumber)), zap.Error(err))
	}
}
