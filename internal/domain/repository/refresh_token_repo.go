package repository

import "github.com/yourusername/accounts-api/internal/domain/entity"

// RefreshTokenRepository persists refresh token sessions.
type RefreshTokenRepository interface {
	Create(token *entity.RefreshToken) error
	GetByToken(token string) (*entity.RefreshToken, error)
	Revoke(token string, reason string) error
	RevokeAllForAccount(accountID uint, reason string) error
	CleanupExpired() (int64, error)
}
