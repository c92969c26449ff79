package service

import "errors"

// Flow specific errors used by handlers for stable error_type mapping.
var (
	// Verification code flow.
	ErrInvalidCode        = errors.New("invalid_code")
	ErrCodeExpired        = errors.New("code_expired")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrAccountNotEligible = errors.New("account_not_eligible")

	// Status gate admin actions.
	ErrSelfModification = errors.New("self_modification")
	ErrNotAuthorized    = errors.New("not_authorized")

	// Gate outcomes surfaced by session issuance and resume paths.
	ErrAccountPending   = errors.New("account_pending")
	ErrAccountSuspended = errors.New("account_suspended")
)
