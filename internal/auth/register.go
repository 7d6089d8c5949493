package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/internal/dms"
	pkgAuth "github.com/tavernkeep/bazaar-backend/pkg/auth"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/security"
)

// RegisterService handles DM onboarding.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerDMRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.DungeonMaster, error)
	Create(ctx context.Context, dto dms.CreateDMDTO) (*models.DungeonMaster, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
// DMRepoFactory binds a repo to the transaction handle.
type RegisterServiceParams struct {
	TxRunner       txRunner
	DMRepoFactory  func(tx *gorm.DB) registerDMRepository
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
}

type registerService struct {
	tx          txRunner
	dmRepo      func(tx *gorm.DB) registerDMRepository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tx runner required")
	}
	if params.DMRepoFactory == nil {
		params.DMRepoFactory = func(tx *gorm.DB) registerDMRepository {
			return dms.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		dmRepo:      params.DMRepoFactory,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *dms.DMDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.dmRepo(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check dm email")
		}

		dm, err := repo.Create(ctx, dms.CreateDMDTO{
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "idx_dungeon_masters_email") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create dm")
		}
		created = dms.FromModel(dm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		DMID:  created.ID,
		Email: created.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RegisterResponse{
		AccessToken: accessToken,
		DM:          created,
	}, nil
}
