package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth"
)

func newSessionServiceForTest(t *testing.T, profileRepo *MockAccountProfileRepository, accountRepo *MockAccountRepository, refreshRepo *MockRefreshTokenRepository, now time.Time) *SessionService {
	t.Helper()

	jwtService, err := auth.NewJWTService("test-secret-key", time.Hour, "accounts-api")
	require.NoError(t, err)

	gate, err := NewStatusGateService(profileRepo, accountRepo, refreshRepo, &NoopEmailService{})
	require.NoError(t, err)

	svc, err := NewSessionService(jwtService, refreshRepo, accountRepo, gate, 720*time.Hour)
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc
}

func TestSessionService_Login(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	account := &entity.Account{ID: 42, Email: "user@test.com"}

	t.Run("active account gets a token pair", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		profileRepo.On("GetByAccountID", uint(42)).Return(userProfile(42, entity.StatusActive), nil)
		refreshRepo.On("Create", mock.MatchedBy(func(rt *entity.RefreshToken) bool {
			return rt.AccountID == 42 && rt.Token != "" && rt.ExpiresAt.Equal(now.Add(720*time.Hour))
		})).Return(nil)

		pair, err := svc.Login(context.Background(), account, "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.Equal(t, uint(42), pair.AccountID)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, 3600, pair.ExpiresIn)
		refreshRepo.AssertExpectations(t)
	})

	t.Run("pending account is redirected, no tokens", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		profileRepo.On("GetByAccountID", uint(42)).Return(userProfile(42, entity.StatusPending), nil)

		_, err := svc.Login(context.Background(), account, "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, ErrAccountPending)
		refreshRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("suspended account is denied and sessions are revoked", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		profileRepo.On("GetByAccountID", uint(42)).Return(userProfile(42, entity.StatusSuspended), nil)
		refreshRepo.On("RevokeAllForAccount", uint(42), "account suspended").Return(nil)

		_, err := svc.Login(context.Background(), account, "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, ErrAccountSuspended)
		refreshRepo.AssertExpectations(t)
	})
}

func TestSessionService_Refresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	liveToken := func() *entity.RefreshToken {
		return &entity.RefreshToken{
			ID:        1,
			AccountID: 42,
			Token:     "live-token",
			ExpiresAt: now.Add(time.Hour),
		}
	}

	t.Run("rotation revokes the old token and issues a new pair", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		refreshRepo.On("GetByToken", "live-token").Return(liveToken(), nil)
		profileRepo.On("GetByAccountID", uint(42)).Return(userProfile(42, entity.StatusActive), nil)
		accountRepo.On("GetByID", uint(42)).Return(&entity.Account{ID: 42, Email: "user@test.com"}, nil)
		refreshRepo.On("Revoke", "live-token", "rotated").Return(nil)
		refreshRepo.On("Create", mock.Anything).Return(nil)

		pair, err := svc.Refresh(context.Background(), "live-token", "127.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.NotEqual(t, "live-token", pair.RefreshToken)
		refreshRepo.AssertExpectations(t)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		refreshRepo.On("GetByToken", "ghost").Return(nil, apperrors.ErrNotFound)

		_, err := svc.Refresh(context.Background(), "ghost", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("revoked token is unauthorized", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		revoked := liveToken()
		revokedAt := now.Add(-time.Minute)
		revoked.RevokedAt = &revokedAt
		refreshRepo.On("GetByToken", "live-token").Return(revoked, nil)

		_, err := svc.Refresh(context.Background(), "live-token", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("expired token is expired", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		stale := liveToken()
		stale.ExpiresAt = now.Add(-time.Minute)
		refreshRepo.On("GetByToken", "live-token").Return(stale, nil)

		_, err := svc.Refresh(context.Background(), "live-token", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
	})

	t.Run("suspension discovered on refresh kills remaining sessions", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		svc := newSessionServiceForTest(t, profileRepo, accountRepo, refreshRepo, now)

		refreshRepo.On("GetByToken", "live-token").Return(liveToken(), nil)
		profileRepo.On("GetByAccountID", uint(42)).Return(userProfile(42, entity.StatusSuspended), nil)
		refreshRepo.On("RevokeAllForAccount", uint(42), "account suspended").Return(nil)

		_, err := svc.Refresh(context.Background(), "live-token", "127.0.0.1", "test-agent")
		assert.ErrorIs(t, err, ErrAccountSuspended)
		refreshRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}
