package dto

import (
	"time"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// AccountResponse is the client-safe view of an account.
type AccountResponse struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewAccountResponse(account *entity.Account) AccountResponse {
	return AccountResponse{
		ID:             account.ID,
		Email:          account.Email,
		EmailConfirmed: account.IsEmailConfirmed(),
		CreatedAt:      account.CreatedAt,
	}
}

// ProfileResponse is the admin view of an account profile.
type ProfileResponse struct {
	AccountID uint      `json:"account_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProfileResponse(profile *entity.AccountProfile) ProfileResponse {
	return ProfileResponse{
		AccountID: profile.AccountID,
		Email:     profile.Email,
		Status:    profile.Status,
		Role:      profile.Role,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
}

// ProfileListResponse wraps a paginated profile listing.
type ProfileListResponse struct {
	Profiles []ProfileResponse `json:"profiles"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}
