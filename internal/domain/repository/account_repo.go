package repository

import "github.com/yourusername/accounts-api/internal/domain/entity"

// AccountRepository persists account identities.
type AccountRepository interface {
	Create(account *entity.Account) error
	GetByID(id uint) (*entity.Account, error)
	GetByEmail(email string) (*entity.Account, error)
	ConfirmEmail(accountID uint) error
}
