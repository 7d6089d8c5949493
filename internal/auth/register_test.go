package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/internal/dms"
	pkgAuth "github.com/tavernkeep/bazaar-backend/pkg/auth"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/security"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterRepo struct {
	data map[string]*models.DungeonMaster
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{data: map[string]*models.DungeonMaster{}}
}

func (s *stubRegisterRepo) FindByEmail(_ context.Context, email string) (*models.DungeonMaster, error) {
	if dm, ok := s.data[email]; ok {
		return dm, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterRepo) Create(_ context.Context, dto dms.CreateDMDTO) (*models.DungeonMaster, error) {
	dm := dto.ToModel()
	dm.ID = uuid.New()
	s.data[dto.Email] = dm
	return dm, nil
}

func newRegisterTestService(t *testing.T, repo *stubRegisterRepo) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		DMRepoFactory: func(tx *gorm.DB) registerDMRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1},
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func TestRegisterCreatesDM(t *testing.T) {
	repo := newStubRegisterRepo()
	svc := newRegisterTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:       " New@Example.COM ",
		DisplayName: "Matt",
		Password:    "Secret123!",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	stored, ok := repo.data["new@example.com"]
	if !ok {
		t.Fatalf("expected dm stored under normalized email")
	}
	valid, err := security.VerifyPassword("Secret123!", stored.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.DMID != stored.ID {
		t.Fatalf("token dm id mismatch")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubRegisterRepo()
	svc := newRegisterTestService(t, repo)

	req := RegisterRequest{Email: "dm@example.com", DisplayName: "Aabria", Password: "Secret123!"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	if err == nil {
		t.Fatalf("expected conflict")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := newRegisterTestService(t, newStubRegisterRepo())

	for name, req := range map[string]RegisterRequest{
		"blank email": {DisplayName: "X", Password: "Secret123!"},
		"blank name":  {Email: "x@example.com", Password: "Secret123!"},
	} {
		_, err := svc.Register(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}
