package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth"
)

// TokenPair is an issued session: short-lived access JWT plus a refresh
// token row in the database.
type TokenPair struct {
	AccountID    uint   `json:"account_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// SessionService issues and rotates sessions. Every path that can hand out a
// usable session runs the status gate first: login, and the refresh path that
// resumes an existing session. Skipping the gate on any of them would let a
// pending or suspended account keep working.
type SessionService struct {
	jwtService  *auth.JWTService
	refreshRepo repository.RefreshTokenRepository
	accountRepo repository.AccountRepository
	gate        *StatusGateService
	refreshTTL  time.Duration

	now func() time.Time
}

func NewSessionService(
	jwtService *auth.JWTService,
	refreshRepo repository.RefreshTokenRepository,
	accountRepo repository.AccountRepository,
	gate *StatusGateService,
	refreshTTL time.Duration,
) (*SessionService, error) {
	if jwtService == nil {
		return nil, fmt.Errorf("JWT service is required")
	}
	if refreshRepo == nil {
		return nil, fmt.Errorf("refresh token repository is required")
	}
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if gate == nil {
		return nil, fmt.Errorf("status gate service is required")
	}
	if refreshTTL <= 0 {
		refreshTTL = 720 * time.Hour
	}
	return &SessionService{
		jwtService:  jwtService,
		refreshRepo: refreshRepo,
		accountRepo: accountRepo,
		gate:        gate,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}, nil
}

// Login gates an already-authenticated account and issues a token pair only
// on Allow. On DenySuspended all existing sessions are terminated as a side
// effect.
func (s *SessionService) Login(ctx context.Context, account *entity.Account, ip, userAgent string) (*TokenPair, error) {
	decision, err := s.gate.Authorize(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	switch decision {
	case DecisionRedirectPending:
		return nil, ErrAccountPending
	case DecisionDenySuspended:
		if err := s.refreshRepo.RevokeAllForAccount(account.ID, "account suspended"); err != nil {
			log.Printf("[SessionService] failed to revoke sessions for suspended account ID=%d: %v", account.ID, err)
		}
		return nil, ErrAccountSuspended
	}

	return s.issue(account, ip, userAgent)
}

// Refresh rotates a session. This is a resume path and is gated exactly like
// login.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*TokenPair, error) {
	record, err := s.refreshRepo.GetByToken(refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if record.RevokedAt != nil {
		return nil, fmt.Errorf("%w: refresh token revoked", apperrors.ErrUnauthorized)
	}
	if !record.ExpiresAt.After(s.now()) {
		return nil, apperrors.ErrExpiredToken
	}

	decision, err := s.gate.Authorize(ctx, record.AccountID)
	if err != nil {
		return nil, err
	}
	switch decision {
	case DecisionRedirectPending:
		return nil, ErrAccountPending
	case DecisionDenySuspended:
		if err := s.refreshRepo.RevokeAllForAccount(record.AccountID, "account suspended"); err != nil {
			log.Printf("[SessionService] failed to revoke sessions for suspended account ID=%d: %v", record.AccountID, err)
		}
		return nil, ErrAccountSuspended
	}

	account, err := s.accountRepo.GetByID(record.AccountID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshRepo.Revoke(refreshToken, "rotated"); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issue(account, ip, userAgent)
}

// Logout revokes the given refresh token. Revoking an already dead token is
// treated as success.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshRepo.Revoke(refreshToken, "logout"); err != nil {
		log.Printf("[SessionService] failed to revoke refresh token on logout: %v", err)
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

func (s *SessionService) issue(account *entity.Account, ip, userAgent string) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateToken(account.ID, account.Email)
	if err != nil {
		log.Printf("[SessionService] failed to generate access token for account ID=%d: %v", account.ID, err)
		return nil, fmt.Errorf("failed to generate tokens")
	}

	record := &entity.RefreshToken{
		AccountID: account.ID,
		Token:     uuid.NewString(),
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: s.now().Add(s.refreshTTL),
		CreatedAt: s.now(),
	}
	if err := s.refreshRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{
		AccountID:    account.ID,
		AccessToken:  accessToken,
		RefreshToken: record.Token,
		ExpiresIn:    int(s.jwtService.AccessTokenExpiry().Seconds()),
	}, nil
}
