package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// ============================================================================
// Моки репозиториев (MockAccountRepository и MockEmailService живут в
// verification_service_test.go)
// ============================================================================

// MockAccountProfileRepository реализует repository.AccountProfileRepository
type MockAccountProfileRepository struct {
	mock.Mock
}

func (m *MockAccountProfileRepository) Create(profile *entity.AccountProfile) error {
	args := m.Called(profile)
	return args.Error(0)
}

func (m *MockAccountProfileRepository) GetByAccountID(accountID uint) (*entity.AccountProfile, error) {
	args := m.Called(accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.AccountProfile), args.Error(1)
}

func (m *MockAccountProfileRepository) UpdateStatus(accountID uint, from, to string) (int64, error) {
	args := m.Called(accountID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountProfileRepository) ListByStatus(status string, limit, offset int) ([]entity.AccountProfile, int64, error) {
	args := m.Called(status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.AccountProfile), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountProfileRepository) DeleteWithAccount(accountID uint) error {
	args := m.Called(accountID)
	return args.Error(0)
}

// MockRefreshTokenRepository реализует repository.RefreshTokenRepository
type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(token *entity.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) GetByToken(token string) (*entity.RefreshToken, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepository) Revoke(token string, reason string) error {
	args := m.Called(token, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) RevokeAllForAccount(accountID uint, reason string) error {
	args := m.Called(accountID, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) CleanupExpired() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// ============================================================================
// Хелперы
// ============================================================================

func newGateServiceForTest(t *testing.T, profileRepo *MockAccountProfileRepository, accountRepo *MockAccountRepository, refreshRepo *MockRefreshTokenRepository, emails *MockEmailService) *StatusGateService {
	t.Helper()
	svc, err := NewStatusGateService(profileRepo, accountRepo, refreshRepo, emails)
	require.NoError(t, err)
	return svc
}

func adminProfile(accountID uint) *entity.AccountProfile {
	return &entity.AccountProfile{
		AccountID: accountID,
		Email:     "admin@test.com",
		Status:    entity.StatusActive,
		Role:      entity.RoleAdmin,
	}
}

func userProfile(accountID uint, status string) *entity.AccountProfile {
	return &entity.AccountProfile{
		AccountID: accountID,
		Email:     "user@test.com",
		Status:    status,
		Role:      entity.RoleUser,
	}
}

// ============================================================================
// EnsureProfile
// ============================================================================

func TestStatusGateService_EnsureProfile(t *testing.T) {
	t.Run("new profile always starts pending", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(nil, apperrors.ErrNotFound)
		profileRepo.On("Create", mock.MatchedBy(func(p *entity.AccountProfile) bool {
			return p.Status == entity.StatusPending && p.Role == entity.RoleUser
		})).Return(nil)

		profile, err := svc.EnsureProfile(context.Background(), 1, "User@Test.com")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, profile.Status)
		assert.Equal(t, "user@test.com", profile.Email)
		profileRepo.AssertExpectations(t)
	})

	t.Run("existing profile is returned as is", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		existing := userProfile(1, entity.StatusActive)
		profileRepo.On("GetByAccountID", uint(1)).Return(existing, nil)

		profile, err := svc.EnsureProfile(context.Background(), 1, "user@test.com")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusActive, profile.Status)
		profileRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

// ============================================================================
// Authorize
// ============================================================================

func TestStatusGateService_Authorize(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		decision GateDecision
	}{
		{"active allows", entity.StatusActive, DecisionAllow},
		{"pending redirects", entity.StatusPending, DecisionRedirectPending},
		{"suspended denies", entity.StatusSuspended, DecisionDenySuspended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profileRepo := new(MockAccountProfileRepository)
			accountRepo := new(MockAccountRepository)
			refreshRepo := new(MockRefreshTokenRepository)
			emails := new(MockEmailService)
			svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

			profileRepo.On("GetByAccountID", uint(1)).Return(userProfile(1, tt.status), nil)

			decision, err := svc.Authorize(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.decision, decision)
		})
	}

	t.Run("missing profile is repaired as pending", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(nil, apperrors.ErrNotFound)
		accountRepo.On("GetByID", uint(1)).Return(&entity.Account{ID: 1, Email: "user@test.com"}, nil)
		profileRepo.On("Create", mock.MatchedBy(func(p *entity.AccountProfile) bool {
			return p.AccountID == 1 && p.Status == entity.StatusPending
		})).Return(nil)

		decision, err := svc.Authorize(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, DecisionRedirectPending, decision)
		profileRepo.AssertExpectations(t)
	})
}

// ============================================================================
// Админские переходы
// ============================================================================

func TestStatusGateService_Approve(t *testing.T) {
	t.Run("admin approves pending profile and target is notified", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("UpdateStatus", uint(2), entity.StatusPending, entity.StatusActive).Return(int64(1), nil)
		profileRepo.On("GetByAccountID", uint(2)).Return(userProfile(2, entity.StatusActive), nil)
		emails.On("SendAccountApproved", mock.Anything, "user@test.com", mock.AnythingOfType("string")).Return(nil)

		err := svc.Approve(context.Background(), 1, 2)
		require.NoError(t, err)
		profileRepo.AssertExpectations(t)
		emails.AssertExpectations(t)
	})

	t.Run("approving a non-pending profile is a conflict", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("UpdateStatus", uint(2), entity.StatusPending, entity.StatusActive).Return(int64(0), nil)
		profileRepo.On("GetByAccountID", uint(2)).Return(userProfile(2, entity.StatusActive), nil)

		err := svc.Approve(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("approving an unknown profile is not found", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("UpdateStatus", uint(99), entity.StatusPending, entity.StatusActive).Return(int64(0), nil)
		profileRepo.On("GetByAccountID", uint(99)).Return(nil, apperrors.ErrNotFound)

		err := svc.Approve(context.Background(), 1, 99)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestStatusGateService_SelfModification(t *testing.T) {
	// Самомодификация запрещена до любых проверок ролей: даже активный админ
	// не может одобрить, заблокировать или удалить сам себя.
	ops := []struct {
		name string
		call func(svc *StatusGateService) error
	}{
		{"approve", func(svc *StatusGateService) error { return svc.Approve(context.Background(), 7, 7) }},
		{"reject", func(svc *StatusGateService) error { return svc.Reject(context.Background(), 7, 7) }},
		{"suspend", func(svc *StatusGateService) error { return svc.Suspend(context.Background(), 7, 7) }},
		{"reinstate", func(svc *StatusGateService) error { return svc.Reinstate(context.Background(), 7, 7) }},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			profileRepo := new(MockAccountProfileRepository)
			accountRepo := new(MockAccountRepository)
			refreshRepo := new(MockRefreshTokenRepository)
			emails := new(MockEmailService)
			svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

			err := op.call(svc)
			assert.ErrorIs(t, err, ErrSelfModification)
			// До репозитория дело не доходит
			profileRepo.AssertNotCalled(t, "GetByAccountID", mock.Anything)
		})
	}
}

func TestStatusGateService_NonAdminActor(t *testing.T) {
	tests := []struct {
		name    string
		profile *entity.AccountProfile
		repoErr error
	}{
		{"plain user", userProfile(1, entity.StatusActive), nil},
		{"pending admin", &entity.AccountProfile{AccountID: 1, Status: entity.StatusPending, Role: entity.RoleAdmin}, nil},
		{"suspended admin", &entity.AccountProfile{AccountID: 1, Status: entity.StatusSuspended, Role: entity.RoleAdmin}, nil},
		{"actor without profile", nil, apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profileRepo := new(MockAccountProfileRepository)
			accountRepo := new(MockAccountRepository)
			refreshRepo := new(MockRefreshTokenRepository)
			emails := new(MockEmailService)
			svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

			profileRepo.On("GetByAccountID", uint(1)).Return(tt.profile, tt.repoErr)

			err := svc.Approve(context.Background(), 1, 2)
			assert.ErrorIs(t, err, ErrNotAuthorized)
			profileRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestStatusGateService_Suspend(t *testing.T) {
	t.Run("suspending revokes sessions", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("UpdateStatus", uint(2), entity.StatusActive, entity.StatusSuspended).Return(int64(1), nil)
		refreshRepo.On("RevokeAllForAccount", uint(2), "account suspended").Return(nil)

		err := svc.Suspend(context.Background(), 1, 2)
		require.NoError(t, err)
		refreshRepo.AssertExpectations(t)
	})

	t.Run("pending profile cannot be suspended", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("UpdateStatus", uint(2), entity.StatusActive, entity.StatusSuspended).Return(int64(0), nil)
		profileRepo.On("GetByAccountID", uint(2)).Return(userProfile(2, entity.StatusPending), nil)

		err := svc.Suspend(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		refreshRepo.AssertNotCalled(t, "RevokeAllForAccount", mock.Anything, mock.Anything)
	})
}

func TestStatusGateService_Reinstate(t *testing.T) {
	profileRepo := new(MockAccountProfileRepository)
	accountRepo := new(MockAccountRepository)
	refreshRepo := new(MockRefreshTokenRepository)
	emails := new(MockEmailService)
	svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

	profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
	profileRepo.On("UpdateStatus", uint(2), entity.StatusSuspended, entity.StatusActive).Return(int64(1), nil)

	err := svc.Reinstate(context.Background(), 1, 2)
	require.NoError(t, err)
	profileRepo.AssertExpectations(t)
}

func TestStatusGateService_Reject(t *testing.T) {
	t.Run("reject removes profile and account together", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("DeleteWithAccount", uint(2)).Return(nil)

		err := svc.Reject(context.Background(), 1, 2)
		require.NoError(t, err)
		profileRepo.AssertExpectations(t)
	})

	t.Run("rejecting unknown profile is not found", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		profileRepo.On("DeleteWithAccount", uint(99)).Return(apperrors.ErrNotFound)

		err := svc.Reject(context.Background(), 1, 99)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

// ============================================================================
// ListProfiles
// ============================================================================

func TestStatusGateService_ListProfiles(t *testing.T) {
	t.Run("admin lists pending queue", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		profileRepo.On("GetByAccountID", uint(1)).Return(adminProfile(1), nil)
		queue := []entity.AccountProfile{*userProfile(2, entity.StatusPending)}
		profileRepo.On("ListByStatus", entity.StatusPending, 50, 0).Return(queue, int64(1), nil)

		profiles, total, err := svc.ListProfiles(context.Background(), 1, entity.StatusPending, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, profiles, 1)
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		profileRepo := new(MockAccountProfileRepository)
		accountRepo := new(MockAccountRepository)
		refreshRepo := new(MockRefreshTokenRepository)
		emails := new(MockEmailService)
		svc := newGateServiceForTest(t, profileRepo, accountRepo, refreshRepo, emails)

		_, _, err := svc.ListProfiles(context.Background(), 1, "frozen", 50, 0)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		profileRepo.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
