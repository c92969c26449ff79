package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// GateDecision is the outcome of a status gate check.
type GateDecision string

const (
	// DecisionAllow lets the request through.
	DecisionAllow GateDecision = "allow"
	// DecisionRedirectPending sends the caller to the awaiting-approval screen.
	DecisionRedirectPending GateDecision = "redirect_pending"
	// DecisionDenySuspended blocks the request; the caller must also
	// terminate any existing sessions for the account.
	DecisionDenySuspended GateDecision = "deny_suspended"
)

// StatusGateService owns the approval status on account profiles and the
// admin actions that move it. Profile reads go through the repository
// directly, which is the privileged access path: it sees every profile and is
// itself never subject to the gate it implements.
type StatusGateService struct {
	profileRepo      repository.AccountProfileRepository
	accountRepo      repository.AccountRepository
	refreshTokenRepo repository.RefreshTokenRepository
	emailService     EmailService
}

func NewStatusGateService(
	profileRepo repository.AccountProfileRepository,
	accountRepo repository.AccountRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	emailService EmailService,
) (*StatusGateService, error) {
	if profileRepo == nil {
		return nil, fmt.Errorf("account profile repository is required")
	}
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if refreshTokenRepo == nil {
		return nil, fmt.Errorf("refresh token repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	return &StatusGateService{
		profileRepo:      profileRepo,
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		emailService:     emailService,
	}, nil
}

// EnsureProfile creates the profile for an account if it does not exist yet.
// The status is always pending no matter what the caller wanted: profile
// creation must never be a way around approval.
func (s *StatusGateService) EnsureProfile(ctx context.Context, accountID uint, email string) (*entity.AccountProfile, error) {
	profile, err := s.profileRepo.GetByAccountID(accountID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	profile = &entity.AccountProfile{
		AccountID: accountID,
		Email:     normalizeEmail(email),
		Status:    entity.StatusPending,
		Role:      entity.RoleUser,
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create account profile: %w", err)
	}
	log.Printf("[StatusGate] created profile for account ID=%d with status=%s", accountID, profile.Status)
	return profile, nil
}

// Authorize resolves the gate decision for an authenticated account. A
// missing profile is a repair condition, not an error: the profile is created
// with default pending status and the caller is redirected to approval.
func (s *StatusGateService) Authorize(ctx context.Context, accountID uint) (GateDecision, error) {
	profile, err := s.profileRepo.GetByAccountID(accountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		account, accErr := s.accountRepo.GetByID(accountID)
		if accErr != nil {
			return "", accErr
		}
		log.Printf("[StatusGate] profile missing for account ID=%d, repairing", accountID)
		profile, err = s.EnsureProfile(ctx, accountID, account.Email)
	}
	if err != nil {
		return "", err
	}

	switch profile.Status {
	case entity.StatusActive:
		return DecisionAllow, nil
	case entity.StatusPending:
		return DecisionRedirectPending, nil
	case entity.StatusSuspended:
		return DecisionDenySuspended, nil
	default:
		return "", fmt.Errorf("account profile ID=%d has unknown status %q", accountID, profile.Status)
	}
}

// Approve moves a pending profile to active. Admin-only; approving yourself
// is never allowed. Sends a best-effort notification to the target.
func (s *StatusGateService) Approve(ctx context.Context, actorID, targetID uint) error {
	if err := s.requireAdminActor(ctx, actorID, targetID); err != nil {
		return err
	}

	affected, err := s.profileRepo.UpdateStatus(targetID, entity.StatusPending, entity.StatusActive)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.transitionConflict(targetID, entity.StatusPending)
	}

	profile, err := s.profileRepo.GetByAccountID(targetID)
	if err != nil {
		log.Printf("[StatusGate] approved account ID=%d but failed to load profile for notification: %v", targetID, err)
		return nil
	}
	if err := s.emailService.SendAccountApproved(ctx, profile.Email, uuid.NewString()); err != nil {
		log.Printf("[StatusGate] failed to send approval email to=%s: %v", profile.Email, err)
	}

	log.Printf("[StatusGate] account ID=%d approved by admin ID=%d", targetID, actorID)
	return nil
}

// Reject removes the profile and the underlying account identity atomically.
// Terminal: used for rejecting pending signups and for hard removal of
// active or suspended accounts.
func (s *StatusGateService) Reject(ctx context.Context, actorID, targetID uint) error {
	if err := s.requireAdminActor(ctx, actorID, targetID); err != nil {
		return err
	}

	if err := s.profileRepo.DeleteWithAccount(targetID); err != nil {
		return err
	}

	log.Printf("[StatusGate] account ID=%d rejected and removed by admin ID=%d", targetID, actorID)
	return nil
}

// Suspend moves an active profile to suspended and terminates the target's
// sessions. There is no pending -> suspended transition.
func (s *StatusGateService) Suspend(ctx context.Context, actorID, targetID uint) error {
	if err := s.requireAdminActor(ctx, actorID, targetID); err != nil {
		return err
	}

	affected, err := s.profileRepo.UpdateStatus(targetID, entity.StatusActive, entity.StatusSuspended)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.transitionConflict(targetID, entity.StatusActive)
	}

	if err := s.refreshTokenRepo.RevokeAllForAccount(targetID, "account suspended"); err != nil {
		log.Printf("[StatusGate] failed to revoke sessions for suspended account ID=%d: %v", targetID, err)
	}

	log.Printf("[StatusGate] account ID=%d suspended by admin ID=%d", targetID, actorID)
	return nil
}

// Reinstate moves a suspended profile back to active.
func (s *StatusGateService) Reinstate(ctx context.Context, actorID, targetID uint) error {
	if err := s.requireAdminActor(ctx, actorID, targetID); err != nil {
		return err
	}

	affected, err := s.profileRepo.UpdateStatus(targetID, entity.StatusSuspended, entity.StatusActive)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.transitionConflict(targetID, entity.StatusSuspended)
	}

	log.Printf("[StatusGate] account ID=%d reinstated by admin ID=%d", targetID, actorID)
	return nil
}

// ListProfiles returns profiles filtered by status, for the admin review
// queue. Empty status lists everything.
func (s *StatusGateService) ListProfiles(ctx context.Context, actorID uint, status string, limit, offset int) ([]entity.AccountProfile, int64, error) {
	if status != "" && !entity.ValidStatus(status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.profileRepo.ListByStatus(status, limit, offset)
}

// requireAdminActor runs the two checks every admin action shares. The self
// check comes first and is unconditional, admins included: an admin locking
// their own profile would have nobody left to undo it.
func (s *StatusGateService) requireAdminActor(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfModification
	}
	return s.requireAdmin(ctx, actorID)
}

func (s *StatusGateService) requireAdmin(ctx context.Context, actorID uint) error {
	actor, err := s.profileRepo.GetByAccountID(actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrNotAuthorized
		}
		return err
	}
	if !actor.IsActiveAdmin() {
		return ErrNotAuthorized
	}
	return nil
}

func (s *StatusGateService) transitionConflict(targetID uint, expected string) error {
	if _, err := s.profileRepo.GetByAccountID(targetID); errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: profile is not %s", apperrors.ErrConflict, expected)
}
