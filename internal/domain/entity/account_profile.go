package entity

import "time"

// Statuses an account profile can be in. New profiles always start as
// StatusPending; the transition table is enforced by the status gate service
// and by conditional UPDATEs in the repository.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Roles for profiles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// AccountProfile stores the approval status and role for an account.
// Exactly one profile exists per account; the account ID is the primary key.
type AccountProfile struct {
	AccountID uint   `gorm:"primaryKey" json:"account_id"`
	Email     string `gorm:"size:100;not null;index" json:"email"`
	Status    string `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending, active, suspended
	Role      string `gorm:"size:20;not null;default:'user'" json:"role"`            // user, admin

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AccountProfile) TableName() string {
	return "account_profiles"
}

// IsActiveAdmin reports whether this profile carries administrative capability.
// Suspended or pending admins have none.
func (p *AccountProfile) IsActiveAdmin() bool {
	return p.Role == RoleAdmin && p.Status == StatusActive
}

// ValidStatus reports whether s is one of the known profile statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	default:
		return false
	}
}
