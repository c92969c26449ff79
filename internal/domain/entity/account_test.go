package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// mockTx создаёт минимальный мок для передачи в BeforeSave
// В реальности BeforeSave не использует tx напрямую, но сигнатура требует его
var mockTx *gorm.DB = nil

func TestAccount_BeforeSave_HashesPassword(t *testing.T) {
	plainPassword := "mySecretPassword123"
	account := &Account{
		Email:    "test@example.com",
		Password: plainPassword,
	}

	err := account.BeforeSave(mockTx)

	require.NoError(t, err, "BeforeSave не должен возвращать ошибку")
	assert.NotEqual(t, plainPassword, account.Password, "Пароль должен быть изменён после хеширования")

	err = bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(plainPassword))
	assert.NoError(t, err, "Хеш должен соответствовать исходному паролю")
}

func TestAccount_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.DefaultCost)
	require.NoError(t, err)

	account := &Account{
		Email:    "test@example.com",
		Password: string(hashedPassword),
	}
	originalHash := account.Password

	err = account.BeforeSave(mockTx)

	require.NoError(t, err)
	assert.Equal(t, originalHash, account.Password, "Уже хешированный пароль не должен изменяться")
}

func TestAccount_CheckPassword(t *testing.T) {
	account := &Account{Email: "test@example.com", Password: "correct horse"}
	require.NoError(t, account.BeforeSave(mockTx))

	assert.True(t, account.CheckPassword("correct horse"))
	assert.False(t, account.CheckPassword("battery staple"))
	assert.False(t, account.CheckPassword(""))
}

func TestAccount_IsEmailConfirmed(t *testing.T) {
	account := &Account{Email: "test@example.com"}
	assert.False(t, account.IsEmailConfirmed())

	now := time.Now()
	account.EmailConfirmedAt = &now
	assert.True(t, account.IsEmailConfirmed())
}

func TestVerificationCode_IsExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code := &VerificationCode{ExpiresAt: base.Add(15 * time.Minute)}

	assert.False(t, code.IsExpired(base))
	assert.False(t, code.IsExpired(base.Add(15*time.Minute-time.Second)))
	// Ровно в момент истечения код уже недействителен
	assert.True(t, code.IsExpired(base.Add(15*time.Minute)))
	assert.True(t, code.IsExpired(base.Add(16*time.Minute)))
}

func TestAccountProfile_IsActiveAdmin(t *testing.T) {
	tests := []struct {
		name   string
		status string
		role   string
		want   bool
	}{
		{"active admin", StatusActive, RoleAdmin, true},
		{"pending admin", StatusPending, RoleAdmin, false},
		{"suspended admin", StatusSuspended, RoleAdmin, false},
		{"active user", StatusActive, RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &AccountProfile{Status: tt.status, Role: tt.role}
			assert.Equal(t, tt.want, p.IsActiveAdmin())
		})
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusActive))
	assert.True(t, ValidStatus(StatusSuspended))
	assert.False(t, ValidStatus("frozen"))
	assert.False(t, ValidStatus(""))
}

func TestRefreshToken_IsValid(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	token := &RefreshToken{ExpiresAt: base.Add(time.Hour)}
	assert.True(t, token.IsValid(base))
	assert.False(t, token.IsValid(base.Add(2*time.Hour)), "протухший токен недействителен")

	token.Revoke("logout", base)
	assert.False(t, token.IsValid(base), "отозванный токен недействителен")
	assert.Equal(t, "logout", token.Reason)
	require.NotNil(t, token.RevokedAt)
}
