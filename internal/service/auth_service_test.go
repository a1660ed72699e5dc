package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

type fakeAdminRepo struct {
	byEmail     map[string]*domain.Admin
	createCalls int
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byEmail: map[string]*domain.Admin{}}
}

func (r *fakeAdminRepo) Create(_ context.Context, admin *domain.Admin) error {
	r.createCalls++
	admin.ID = uuid.NewString()
	copied := *admin
	r.byEmail[admin.Email] = &copied
	return nil
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	for _, admin := range r.byEmail {
		if admin.ID == id {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	admin, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *admin
	return &copied, nil
}

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}
}

func TestRegisterAdminCreatesActiveAccount(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := service.NewAuthService(authConfig(), repo)

	admin, err := svc.RegisterAdmin(context.Background(), "Asha", "asha@city.gov", "s3cret-pass")
	require.NoError(t, err)

	assert.NotEmpty(t, admin.ID)
	assert.True(t, admin.Active)
	assert.NoError(t, auth.ComparePassword(admin.PasswordHash, "s3cret-pass"))
}

func TestRegisterAdminRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := service.NewAuthService(authConfig(), repo)

	_, err := svc.RegisterAdmin(context.Background(), "Asha", "asha@city.gov", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.RegisterAdmin(context.Background(), "Imposter", "asha@city.gov", "other-pass")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	assert.Equal(t, 1, repo.createCalls)
}

func TestEnsureBootstrapAdminProvisionsOnce(t *testing.T) {
	cfg := authConfig()
	cfg.BootstrapName = "Administrator"
	cfg.BootstrapEmail = "admin@city.gov"
	cfg.BootstrapPassword = "bootstrap-pass"

	repo := newFakeAdminRepo()
	svc := service.NewAuthService(cfg, repo)

	admin, err := svc.EnsureBootstrapAdmin(context.Background())
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "admin@city.gov", admin.Email)

	// A restart with the same credentials must not create a second account.
	again, err := svc.EnsureBootstrapAdmin(context.Background())
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Equal(t, 1, repo.createCalls)

	_, token, _, err := svc.Login(context.Background(), "admin@city.gov", "bootstrap-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestEnsureBootstrapAdminSkippedWithoutCredentials(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := service.NewAuthService(authConfig(), repo)

	admin, err := svc.EnsureBootstrapAdmin(context.Background())
	require.NoError(t, err)
	assert.Nil(t, admin)
	assert.Zero(t, repo.createCalls)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeAdminRepo()
	svc := service.NewAuthService(authConfig(), repo)

	_, err := svc.RegisterAdmin(context.Background(), "Asha", "asha@city.gov", "s3cret-pass")
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "asha@city.gov", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	_, _, _, err = svc.Login(context.Background(), "nobody@city.gov", "s3cret-pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}
