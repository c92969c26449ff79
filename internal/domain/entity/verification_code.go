package entity

import "time"

// VerificationCode stores one-time 6-digit email verification codes.
// Rows are never deleted by the normal flow: matched codes are marked
// verified and superseded codes are soft-invalidated the same way, so
// history stays available for audit. A separate purge tool removes
// verified and expired rows.
type VerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;index:idx_verification_codes_email_code" json:"email"`
	Code      string    `gorm:"size:6;not null;index:idx_verification_codes_email_code" json:"-"`
	AccountID *uint     `gorm:"index" json:"account_id,omitempty"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !v.ExpiresAt.After(now)
}
