package markets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/internal/session"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	"github.com/tavernkeep/bazaar-backend/pkg/metrics"
)

type marketRepository interface {
	Create(ctx context.Context, dto CreateMarketDTO) (*models.Market, error)
	ListByDM(ctx context.Context, dmID uuid.UUID) ([]models.Market, error)
	CountByDM(ctx context.Context, dmID uuid.UUID) (int64, error)
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Market, error)
	FindActiveByDM(ctx context.Context, dmID uuid.UUID) (*models.Market, error)
	FindByAccessCode(ctx context.Context, code string) (*models.Market, error)
	UpdateDetails(ctx context.Context, market *models.Market) error
	SetActivation(ctx context.Context, id uuid.UUID, active bool, until *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListMarketItems(ctx context.Context, marketID uuid.UUID) ([]models.ShopItem, error)
	ResetStocks(ctx context.Context, marketID uuid.UUID) error
}

type stockTracker interface {
	Seed(ctx context.Context, marketID uuid.UUID, items []session.StockItem) error
	Clear(ctx context.Context, marketID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the market lifecycle operations.
type Service interface {
	Create(ctx context.Context, dmID uuid.UUID, input CreateMarketInput) (*MarketDTO, error)
	List(ctx context.Context, dmID uuid.UUID) ([]MarketDTO, error)
	Get(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error)
	Update(ctx context.Context, dmID, marketID uuid.UUID, input UpdateMarketInput) (*MarketDTO, error)
	Delete(ctx context.Context, dmID, marketID uuid.UUID) error
	ActiveMarket(ctx context.Context, dmID uuid.UUID) (*MarketDTO, error)
	Activate(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error)
	Deactivate(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error)
	FindByAccessCode(ctx context.Context, code string) (*MarketDTO, error)
}

// ServiceParams bundles what the market service needs. DB wires the
// prod repo/tx runner; tests supply Repo, TxRunner, and RepoFactory.
type ServiceParams struct {
	DB          *db.Client
	Repo        marketRepository
	TxRunner    txRunner
	RepoFactory func(tx *gorm.DB) marketRepository
	Tracker     stockTracker
	MarketCfg   config.MarketConfig
	Limits      config.LimitsConfig
	Metrics     *metrics.MarketplaceMetrics
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo      marketRepository
	tx        txRunner
	factory   func(tx *gorm.DB) marketRepository
	tracker   stockTracker
	marketCfg config.MarketConfig
	limits    config.LimitsConfig
	metrics   *metrics.MarketplaceMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the market lifecycle service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB != nil {
		if params.Repo == nil {
			params.Repo = NewRepository(params.DB.DB())
		}
		if params.TxRunner == nil {
			params.TxRunner = params.DB
		}
		if params.RepoFactory == nil {
			params.RepoFactory = func(tx *gorm.DB) marketRepository {
				return NewRepository(tx)
			}
		}
	}
	if params.Repo == nil || params.TxRunner == nil || params.RepoFactory == nil {
		return nil, fmt.Errorf("market repository, tx runner, and repo factory are required")
	}
	if params.Tracker == nil {
		return nil, fmt.Errorf("stock tracker is required")
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		factory:   params.RepoFactory,
		tracker:   params.Tracker,
		marketCfg: params.MarketCfg,
		limits:    params.Limits,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       params.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, dmID uuid.UUID, input CreateMarketInput) (*MarketDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	count, err := s.repo.CountByDM(ctx, dmID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count markets")
	}
	if s.limits.MarketsPerDM > 0 && count >= int64(s.limits.MarketsPerDM) {
		return nil, pkgerrors.New(pkgerrors.CodeLimitReached, "market limit reached").
			WithDetails(map[string]any{"limit": s.limits.MarketsPerDM})
	}

	code, err := GenerateAccessCode(name)
	if err != nil {
		return nil, err
	}

	market, err := s.repo.Create(ctx, CreateMarketDTO{
		DMID:        dmID,
		Name:        name,
		Description: input.Description,
		AccessCode:  code,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create market")
	}
	return FromModel(market), nil
}

func (s *service) List(ctx context.Context, dmID uuid.UUID) ([]MarketDTO, error) {
	markets, err := s.repo.ListByDM(ctx, dmID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list markets")
	}

	out := make([]MarketDTO, 0, len(markets))
	for i := range markets {
		market := &markets[i]
		if market.Expired(s.now()) {
			if err := s.reconcileExpiry(ctx, market); err != nil {
				return nil, err
			}
		}
		out = append(out, *FromModel(market))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error) {
	market, err := s.findOwned(ctx, dmID, marketID)
	if err != nil {
		return nil, err
	}
	if market.Expired(s.now()) {
		if err := s.reconcileExpiry(ctx, market); err != nil {
			return nil, err
		}
	}
	return FromModel(market), nil
}

func (s *service) Update(ctx context.Context, dmID, marketID uuid.UUID, input UpdateMarketInput) (*MarketDTO, error) {
	market, err := s.findOwned(ctx, dmID, marketID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		// The access code is fixed at creation; renames do not rotate it.
		market.Name = name
	}
	if input.Description != nil {
		market.Description = input.Description
	}

	if err := s.repo.UpdateDetails(ctx, market); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update market")
	}
	return FromModel(market), nil
}

// Delete removes the market and its shops/items. Session keys are left
// to their TTL, so deleting an active market needs no redis cleanup.
func (s *service) Delete(ctx context.Context, dmID, marketID uuid.UUID) error {
	if _, err := s.findOwned(ctx, dmID, marketID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, marketID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete market")
	}
	return nil
}

// ActiveMarket returns the DM's active market after reconciling expiry.
// A nil result with nil error means no market is active.
func (s *service) ActiveMarket(ctx context.Context, dmID uuid.UUID) (*MarketDTO, error) {
	market, err := s.repo.FindActiveByDM(ctx, dmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find active market")
	}
	if market.Expired(s.now()) {
		if err := s.reconcileExpiry(ctx, market); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return FromModel(market), nil
}

func (s *service) Activate(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error) {
	now := s.now()
	until := now.Add(s.marketCfg.ActivationWindow)

	var (
		activated    *models.Market
		seedItems    []session.StockItem
		expiredClear *uuid.UUID
		alreadyLive  bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.factory(tx)

		market, err := repo.FindByIDForDM(ctx, dmID, marketID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load market")
		}

		current, err := repo.FindActiveByDM(ctx, dmID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find active market")
		}
		if current != nil {
			switch {
			case current.Expired(now):
				if err := deactivateTx(ctx, repo, current.ID); err != nil {
					return err
				}
				id := current.ID
				expiredClear = &id
			case current.ID != marketID:
				return pkgerrors.New(pkgerrors.CodeConflict, "another market is already active").
					WithDetails(map[string]any{"active_market_id": current.ID})
			default:
				// Re-activating the live market is a no-op; the window
				// is not extended.
				activated = current
				alreadyLive = true
				return nil
			}
		}

		if err := repo.SetActivation(ctx, marketID, true, &until); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate market")
		}

		items, err := repo.ListMarketItems(ctx, marketID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list market items")
		}
		for _, item := range items {
			if item.Stock != nil {
				seedItems = append(seedItems, session.StockItem{
					ShopItemID: item.ID,
					Stock:      *item.Stock,
				})
			}
		}

		market.IsActive = true
		market.ActiveUntil = &until
		activated = market
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expiredClear != nil {
		s.clearSession(ctx, *expiredClear, "expired")
	}
	if alreadyLive {
		return FromModel(activated), nil
	}

	if err := s.tracker.Seed(ctx, marketID, seedItems); err != nil {
		// Roll the activation back rather than run a session with
		// untracked stock.
		if rbErr := s.repo.SetActivation(ctx, marketID, false, nil); rbErr != nil && s.logg != nil {
			s.logg.Error(ctx, "rollback activation after seed failure", rbErr)
		}
		return nil, err
	}

	s.metrics.IncActivation()
	if s.logg != nil {
		s.logg.Info(s.logg.WithMarketID(ctx, marketID.String()), "market activated")
	}
	return FromModel(activated), nil
}

func (s *service) Deactivate(ctx context.Context, dmID, marketID uuid.UUID) (*MarketDTO, error) {
	var deactivated *models.Market
	wasActive := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.factory(tx)

		market, err := repo.FindByIDForDM(ctx, dmID, marketID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load market")
		}
		if !market.IsActive {
			deactivated = market
			return nil
		}

		if err := deactivateTx(ctx, repo, marketID); err != nil {
			return err
		}
		market.IsActive = false
		market.ActiveUntil = nil
		deactivated = market
		wasActive = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasActive {
		s.clearSession(ctx, marketID, "manual")
	}
	return FromModel(deactivated), nil
}

// FindByAccessCode resolves a player's code, reconciling expiry first so
// players never see a stale active market.
func (s *service) FindByAccessCode(ctx context.Context, code string) (*MarketDTO, error) {
	market, err := s.repo.FindByAccessCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown access code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find market by code")
	}
	if market.Expired(s.now()) {
		if err := s.reconcileExpiry(ctx, market); err != nil {
			return nil, err
		}
	}
	return FromModel(market), nil
}

// reconcileExpiry applies the full deactivation side effects to a market
// whose window has elapsed, then updates the in-memory model. It is the
// single place lazy expiry happens.
func (s *service) reconcileExpiry(ctx context.Context, market *models.Market) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return deactivateTx(ctx, s.factory(tx), market.ID)
	})
	if err != nil {
		return err
	}
	s.clearSession(ctx, market.ID, "expired")
	market.IsActive = false
	market.ActiveUntil = nil
	return nil
}

// deactivateTx runs the in-transaction half of deactivation: restore
// persisted stock to the session baseline, then drop the active flag.
func deactivateTx(ctx context.Context, repo marketRepository, marketID uuid.UUID) error {
	if err := repo.ResetStocks(ctx, marketID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset stocks")
	}
	if err := repo.SetActivation(ctx, marketID, false, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivate market")
	}
	return nil
}

// clearSession drops the redis hash; failures are logged, not fatal,
// since the key expires on its own.
func (s *service) clearSession(ctx context.Context, marketID uuid.UUID, reason string) {
	if err := s.tracker.Clear(ctx, marketID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "clear session stock failed: "+err.Error())
	}
	s.metrics.IncDeactivation(reason)
}

func (s *service) findOwned(ctx context.Context, dmID, marketID uuid.UUID) (*models.Market, error) {
	market, err := s.repo.FindByIDForDM(ctx, dmID, marketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load market")
	}
	return market, nil
}
