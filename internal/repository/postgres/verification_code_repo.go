package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// VerificationCodeRepo реализует repository.VerificationCodeRepository
type VerificationCodeRepo struct {
	db *gorm.DB
}

func NewVerificationCodeRepo(db *gorm.DB) *VerificationCodeRepo {
	return &VerificationCodeRepo{db: db}
}

func (r *VerificationCodeRepo) Create(code *entity.VerificationCode) error {
	return r.db.Create(code).Error
}

func (r *VerificationCodeRepo) GetLatestMatch(email, code string) (*entity.VerificationCode, error) {
	var record entity.VerificationCode
	err := r.db.
		Where("email = ? AND code = ? AND verified = false", email, code).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up verification code: %w", err)
	}
	return &record, nil
}

func (r *VerificationCodeRepo) GetLatestActiveByEmail(email string) (*entity.VerificationCode, error) {
	var record entity.VerificationCode
	err := r.db.
		Where("email = ? AND verified = false", email).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest active verification code: %w", err)
	}
	return &record, nil
}

// IncrementAttempts атомарно увеличивает счетчик попыток одним UPDATE
// и возвращает новое значение. Два конкурентных verify для одной строки
// сериализуются на блокировке строки в Postgres.
func (r *VerificationCodeRepo) IncrementAttempts(id uint) (int, error) {
	var attempts int
	err := r.db.Raw(
		"UPDATE verification_codes SET attempts = attempts + 1 WHERE id = ? AND verified = false RETURNING attempts",
		id,
	).Scan(&attempts).Error
	if err != nil {
		return 0, fmt.Errorf("failed to increment attempts: %w", err)
	}
	return attempts, nil
}

// MarkVerified потребляет код. Условие на verified и attempts входит в сам
// UPDATE: проверка лимита и потребление happen атомарно, без read-then-write.
func (r *VerificationCodeRepo) MarkVerified(id uint, maxAttempts int) (int64, error) {
	result := r.db.Model(&entity.VerificationCode{}).
		Where("id = ? AND verified = false AND attempts < ?", id, maxAttempts).
		Update("verified", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark verification code verified: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *VerificationCodeRepo) InvalidateAllForEmail(email string) error {
	return r.db.Model(&entity.VerificationCode{}).
		Where("email = ? AND verified = false", email).
		Update("verified", true).Error
}
