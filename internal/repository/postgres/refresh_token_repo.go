package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// RefreshTokenRepo реализует repository.RefreshTokenRepository
type RefreshTokenRepo struct {
	db *gorm.DB
}

func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

func (r *RefreshTokenRepo) Create(token *entity.RefreshToken) error {
	return r.db.Create(token).Error
}

func (r *RefreshTokenRepo) GetByToken(token string) (*entity.RefreshToken, error) {
	var record entity.RefreshToken
	err := r.db.Where("token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &record, nil
}

func (r *RefreshTokenRepo) Revoke(token string, reason string) error {
	now := time.Now()
	return r.db.Model(&entity.RefreshToken{}).
		Where("token = ? AND revoked_at IS NULL", token).
		Updates(map[string]interface{}{
			"revoked_at": &now,
			"reason":     reason,
		}).Error
}

// RevokeAllForAccount отзывает все активные сессии аккаунта.
// Используется при переводе профиля в suspended.
func (r *RefreshTokenRepo) RevokeAllForAccount(accountID uint, reason string) error {
	now := time.Now()
	return r.db.Model(&entity.RefreshToken{}).
		Where("account_id = ? AND revoked_at IS NULL", accountID).
		Updates(map[string]interface{}{
			"revoked_at": &now,
			"reason":     reason,
		}).Error
}

func (r *RefreshTokenRepo) CleanupExpired() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).Delete(&entity.RefreshToken{})
	return result.RowsAffected, result.Error
}
