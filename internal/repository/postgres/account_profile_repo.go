package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// AccountProfileRepo реализует repository.AccountProfileRepository
type AccountProfileRepo struct {
	db *gorm.DB
}

func NewAccountProfileRepo(db *gorm.DB) *AccountProfileRepo {
	return &AccountProfileRepo{db: db}
}

func (r *AccountProfileRepo) Create(profile *entity.AccountProfile) error {
	return r.db.Create(profile).Error
}

func (r *AccountProfileRepo) GetByAccountID(accountID uint) (*entity.AccountProfile, error) {
	var profile entity.AccountProfile
	err := r.db.Where("account_id = ?", accountID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account profile: %w", err)
	}
	return &profile, nil
}

// UpdateStatus выполняет условный переход статуса одним UPDATE.
// Возвращает количество измененных строк: 0 означает, что профиль
// не находился в ожидаемом исходном статусе.
func (r *AccountProfileRepo) UpdateStatus(accountID uint, from, to string) (int64, error) {
	result := r.db.Model(&entity.AccountProfile{}).
		Where("account_id = ? AND status = ?", accountID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update profile status: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *AccountProfileRepo) ListByStatus(status string, limit, offset int) ([]entity.AccountProfile, int64, error) {
	var profiles []entity.AccountProfile
	var total int64

	query := r.db.Model(&entity.AccountProfile{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC, account_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// DeleteWithAccount удаляет профиль и учетную запись в одной транзакции.
// Либо удаляются обе записи, либо ни одна — осиротевших строк не остается.
// Строки verification_codes не трогаем, они остаются для аудита.
func (r *AccountProfileRepo) DeleteWithAccount(accountID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("account_id = ?", accountID).Delete(&entity.AccountProfile{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		if err := tx.Where("account_id = ?", accountID).Delete(&entity.RefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}

		result = tx.Delete(&entity.Account{}, accountID)
		if result.Error != nil {
			return fmt.Errorf("failed to delete account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
