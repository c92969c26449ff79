package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// AccountRepo реализует repository.AccountRepository
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo создает новый репозиторий аккаунтов
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create создает новую учетную запись
func (r *AccountRepo) Create(account *entity.Account) error {
	return r.db.Create(account).Error
}

// GetByID возвращает учетную запись по ID
func (r *AccountRepo) GetByID(id uint) (*entity.Account, error) {
	var account entity.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByEmail возвращает учетную запись по email
func (r *AccountRepo) GetByEmail(email string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// ConfirmEmail отмечает email учетной записи подтвержденным
func (r *AccountRepo) ConfirmEmail(accountID uint) error {
	now := time.Now()
	return r.db.Model(&entity.Account{}).
		Where("id = ? AND email_confirmed_at IS NULL", accountID).
		Updates(map[string]interface{}{
			"email_confirmed_at": &now,
			"updated_at":         now,
		}).Error
}
