package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// VerificationStatus describes the live code for an email, if any.
type VerificationStatus struct {
	Email          string     `json:"email"`
	EmailConfirmed bool       `json:"email_confirmed"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AttemptsLeft   int        `json:"attempts_left"`
}

// VerifyResult is returned on successful code verification.
type VerifyResult struct {
	AccountID *uint `json:"account_id,omitempty"`
}

// VerificationService owns generation, storage, expiry and consumption of
// one-time email verification codes.
type VerificationService struct {
	codeRepo     repository.VerificationCodeRepository
	accountRepo  repository.AccountRepository
	emailService EmailService
	codeTTL      time.Duration
	maxAttempts  int

	// now is swapped out in tests to simulate clock advance.
	now func() time.Time
}

func NewVerificationService(
	codeRepo repository.VerificationCodeRepository,
	accountRepo repository.AccountRepository,
	emailService EmailService,
	codeTTL time.Duration,
	maxAttempts int,
) (*VerificationService, error) {
	if codeRepo == nil {
		return nil, fmt.Errorf("verification code repository is required")
	}
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return &VerificationService{
		codeRepo:     codeRepo,
		accountRepo:  accountRepo,
		emailService: emailService,
		codeTTL:      codeTTL,
		maxAttempts:  maxAttempts,
		now:          time.Now,
	}, nil
}

// Issue generates a fresh 6-digit code for the email and persists it.
// Issuance is additive: prior rows for the same email are left untouched,
// invalidation happens only through Resend. The email dispatch is best-effort
// and never fails the operation.
func (s *VerificationService) Issue(ctx context.Context, email string, accountID *uint, ttl time.Duration) (*entity.VerificationCode, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if ttl <= 0 {
		ttl = s.codeTTL
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}

	record := &entity.VerificationCode{
		Email:     email,
		Code:      code,
		AccountID: accountID,
		ExpiresAt: s.now().Add(ttl),
		Verified:  false,
		Attempts:  0,
		CreatedAt: s.now(),
	}
	if err := s.codeRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create verification record: %w", err)
	}

	idempotencyKey := fmt.Sprintf("verify-code:%s:%d", email, record.ID)
	if err := s.emailService.SendVerificationCode(ctx, email, code, ttl, idempotencyKey); err != nil {
		// Delivery is a collaborator concern. The code row is already durable,
		// the caller can always request a resend.
		log.Printf("[VerificationService] failed to send verification email to=%s: %v", email, err)
	}

	return record, nil
}

// Resend invalidates every live code for the email and issues a new one, so
// at most one code can match at any time while history rows stay around.
func (s *VerificationService) Resend(ctx context.Context, email string) (*entity.VerificationCode, error) {
	email = normalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(email)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, ErrAccountNotEligible
		}
		return nil, err
	}
	if account.IsEmailConfirmed() {
		return nil, ErrAccountNotEligible
	}

	if err := s.codeRepo.InvalidateAllForEmail(email); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	accountID := account.ID
	return s.Issue(ctx, email, &accountID, s.codeTTL)
}

// Verify matches the submitted code against the most recent unverified row
// for the email. Failed matches against a found row always count toward the
// row-scoped lockout, including submissions of already expired codes.
func (s *VerificationService) Verify(ctx context.Context, email, submittedCode string) (*VerifyResult, error) {
	email = normalizeEmail(email)
	if strings.TrimSpace(submittedCode) == "" {
		return nil, fmt.Errorf("%w: empty verification code", apperrors.ErrValidation)
	}

	record, err := s.codeRepo.GetLatestMatch(email, submittedCode)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if record.IsExpired(s.now()) {
		if _, incErr := s.codeRepo.IncrementAttempts(record.ID); incErr != nil {
			log.Printf("[VerificationService] failed to count attempt on expired code id=%d: %v", record.ID, incErr)
		}
		return nil, ErrCodeExpired
	}

	if record.Attempts >= s.maxAttempts {
		if _, incErr := s.codeRepo.IncrementAttempts(record.ID); incErr != nil {
			log.Printf("[VerificationService] failed to count attempt on locked code id=%d: %v", record.ID, incErr)
		}
		return nil, ErrTooManyAttempts
	}

	// The attempt cap is re-checked inside the UPDATE itself, so a verify
	// racing with failed attempts on the same row cannot slip past the cap.
	affected, err := s.codeRepo.MarkVerified(record.ID, s.maxAttempts)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidCode
	}

	if record.AccountID != nil {
		if err := s.accountRepo.ConfirmEmail(*record.AccountID); err != nil {
			return nil, fmt.Errorf("failed to confirm account email: %w", err)
		}
	}

	return &VerifyResult{AccountID: record.AccountID}, nil
}

// Status reports the live code for the email, used by clients to drive the
// "enter your code" screen.
func (s *VerificationService) Status(ctx context.Context, email string) (*VerificationStatus, error) {
	email = normalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}

	status := &VerificationStatus{
		Email:          account.Email,
		EmailConfirmed: account.IsEmailConfirmed(),
	}
	if status.EmailConfirmed {
		return status, nil
	}

	latest, err := s.codeRepo.GetLatestActiveByEmail(email)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return status, nil
		}
		return nil, err
	}

	if latest.ExpiresAt.After(s.now()) {
		exp := latest.ExpiresAt
		status.ExpiresAt = &exp
		status.AttemptsLeft = s.maxAttempts - latest.Attempts
		if status.AttemptsLeft < 0 {
			status.AttemptsLeft = 0
		}
	}

	return status, nil
}

// generateVerificationCode returns a uniformly random zero-padded 6-digit
// code. Leading zeros are preserved; collisions across emails are fine.
func generateVerificationCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// normalizeEmail приводит email к стандартному виду: trim пробелов + lowercase
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
