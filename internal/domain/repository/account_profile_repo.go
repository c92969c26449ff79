package repository

import "github.com/yourusername/accounts-api/internal/domain/entity"

// AccountProfileRepository persists per-account approval profiles.
//
// Reads through this interface are a privileged access path: callers see any
// profile regardless of whose session is asking. Handlers must never touch it
// directly; the status gate service is the only consumer.
type AccountProfileRepository interface {
	Create(profile *entity.AccountProfile) error
	GetByAccountID(accountID uint) (*entity.AccountProfile, error)
	// UpdateStatus moves the profile from one status to another with a single
	// conditional UPDATE. Returns the number of rows changed: 0 means the
	// profile was not in the expected source status.
	UpdateStatus(accountID uint, from, to string) (int64, error)
	ListByStatus(status string, limit, offset int) ([]entity.AccountProfile, int64, error)
	// DeleteWithAccount removes the profile and the underlying account
	// identity in one transaction. Both rows go or neither does.
	DeleteWithAccount(accountID uint) error
}
