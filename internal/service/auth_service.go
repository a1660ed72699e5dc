package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/repository"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// AuthService coordinates admin login and token issuance.
type AuthService struct {
	admins            repository.AdminRepository
	tokenMgr          *auth.TokenManager
	bcryptCost        int
	bootstrapName     string
	bootstrapEmail    string
	bootstrapPassword string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, admins repository.AdminRepository) *AuthService {
	return &AuthService{
		admins:            admins,
		tokenMgr:          auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:        cfg.BcryptCost,
		bootstrapName:     cfg.BootstrapName,
		bootstrapEmail:    cfg.BootstrapEmail,
		bootstrapPassword: cfg.BootstrapPassword,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login authenticates an administrator and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !admin.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("admin account disabled")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(admin.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return admin, token, exp, nil
}

// EnsureBootstrapAdmin provisions the initial administrator from
// configuration. It is a no-op when no bootstrap credentials are configured
// or the account already exists; the created admin is returned otherwise.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context) (*domain.Admin, error) {
	if s.bootstrapEmail == "" || s.bootstrapPassword == "" {
		return nil, nil
	}

	admin, err := s.RegisterAdmin(ctx, s.bootstrapName, s.bootstrapEmail, s.bootstrapPassword)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "CONFLICT" {
			return nil, nil
		}
		return nil, err
	}
	return admin, nil
}

// RegisterAdmin creates a new administrator account.
func (s *AuthService) RegisterAdmin(ctx context.Context, name, email, password string) (*domain.Admin, error) {
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	admin := &domain.Admin{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, apperrors.MapError(err)
	}
	return admin, nil
}
