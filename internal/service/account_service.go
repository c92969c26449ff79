package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// AccountService is the account store facade: identity creation and
// credential verification. Status lives on the profile and is owned by the
// status gate service, never mutated here.
type AccountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) (*AccountService, error) {
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	return &AccountService{accountRepo: accountRepo}, nil
}

// CreateIdentity registers a new account with the given credentials. The
// password is hashed by the entity hook on save.
func (s *AccountService) CreateIdentity(ctx context.Context, email, password string) (*entity.Account, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	_, err := s.accountRepo.GetByEmail(email)
	if err == nil {
		return nil, fmt.Errorf("%w: account with this email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	account := &entity.Account{
		Email:    email,
		Password: password,
	}
	if err := s.accountRepo.Create(account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the credentials without creating a session. The error
// is uniform for unknown email and wrong password.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	email = normalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(email)
	if err != nil {
		log.Printf("[AccountService] account with email %s not found: %v", email, err)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	if !account.CheckPassword(password) {
		log.Printf("[AccountService] wrong password for email %s", email)
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	return account, nil
}

// GetByID возвращает учетную запись по ID
func (s *AccountService) GetByID(ctx context.Context, accountID uint) (*entity.Account, error) {
	return s.accountRepo.GetByID(accountID)
}
