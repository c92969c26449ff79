package repository

import "github.com/yourusername/accounts-api/internal/domain/entity"

// VerificationCodeRepository persists one-time verification codes.
type VerificationCodeRepository interface {
	Create(code *entity.VerificationCode) error
	// GetLatestMatch returns the most recently created unverified row for the
	// (email, code) pair, regardless of expiry.
	GetLatestMatch(email, code string) (*entity.VerificationCode, error)
	// GetLatestActiveByEmail returns the most recent unverified row for the email.
	GetLatestActiveByEmail(email string) (*entity.VerificationCode, error)
	// IncrementAttempts bumps the attempt counter atomically and returns the
	// new value. The increment must be a single conditional UPDATE so that
	// concurrent verifies against one row serialize on it.
	IncrementAttempts(id uint) (int, error)
	// MarkVerified consumes the row. The UPDATE is conditional on the row
	// still being unverified and under the attempt cap; 0 rows changed means
	// a concurrent verify won or the row hit the cap.
	MarkVerified(id uint, maxAttempts int) (int64, error)
	// InvalidateAllForEmail soft-invalidates every live code for the email by
	// marking it verified, so it can never match again.
	InvalidateAllForEmail(email string) error
}
