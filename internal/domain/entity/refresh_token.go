package entity

import "time"

// RefreshToken stores a refresh token session record.
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	AccountID uint       `gorm:"not null;index" json:"account_id"`
	Token     string     `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IPAddress string     `gorm:"size:50;not null;default:''" json:"ip_address"`
	UserAgent string     `gorm:"type:text;not null;default:''" json:"user_agent"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	Reason    string     `gorm:"size:255" json:"reason,omitempty"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// IsValid checks token validity at the given time.
func (rt *RefreshToken) IsValid(now time.Time) bool {
	return rt.RevokedAt == nil && rt.ExpiresAt.After(now)
}

// Revoke marks token as revoked with reason.
func (rt *RefreshToken) Revoke(reason string, now time.Time) {
	rt.RevokedAt = &now
	rt.Reason = reason
}
