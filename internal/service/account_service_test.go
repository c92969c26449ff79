package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

func TestAccountService_CreateIdentity(t *testing.T) {
	t.Run("creates account with normalized email", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc, err := NewAccountService(accountRepo)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", "user@test.com").Return(nil, apperrors.ErrNotFound)
		accountRepo.On("Create", mock.MatchedBy(func(a *entity.Account) bool {
			return a.Email == "user@test.com"
		})).Return(nil)

		account, err := svc.CreateIdentity(context.Background(), "  User@Test.com ", "longenough")
		require.NoError(t, err)
		assert.Equal(t, "user@test.com", account.Email)
		accountRepo.AssertExpectations(t)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc, err := NewAccountService(accountRepo)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", "user@test.com").Return(&entity.Account{ID: 1, Email: "user@test.com"}, nil)

		_, err = svc.CreateIdentity(context.Background(), "user@test.com", "longenough")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		accountRepo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("short password is a validation error", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc, err := NewAccountService(accountRepo)
		require.NoError(t, err)

		_, err = svc.CreateIdentity(context.Background(), "user@test.com", "short")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestAccountService_Authenticate(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	stored := &entity.Account{ID: 42, Email: "user@test.com", Password: string(hashed)}

	t.Run("valid credentials", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc, err := NewAccountService(accountRepo)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", "user@test.com").Return(stored, nil)

		account, err := svc.Authenticate(context.Background(), "user@test.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, uint(42), account.ID)
	})

	// Неизвестный email и неверный пароль дают одинаковую ошибку:
	// по ответу нельзя перебирать зарегистрированные адреса
	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		svc, err := NewAccountService(accountRepo)
		require.NoError(t, err)

		accountRepo.On("GetByEmail", "ghost@test.com").Return(nil, apperrors.ErrNotFound)
		accountRepo.On("GetByEmail", "user@test.com").Return(stored, nil)

		_, errUnknown := svc.Authenticate(context.Background(), "ghost@test.com", "whatever")
		_, errWrong := svc.Authenticate(context.Background(), "user@test.com", "battery staple")

		assert.ErrorIs(t, errUnknown, apperrors.ErrUnauthorized)
		assert.ErrorIs(t, errWrong, apperrors.ErrUnauthorized)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
	})
}
