package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Account представляет учетную запись (identity) во внутреннем хранилище аккаунтов.
// Профиль со статусом хранится отдельно в AccountProfile.
type Account struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`

	EmailConfirmedAt *time.Time `gorm:"type:timestamp" json:"email_confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Account) TableName() string {
	return "accounts"
}

// IsEmailConfirmed возвращает true, если email подтвержден кодом
func (a *Account) IsEmailConfirmed() bool {
	return a.EmailConfirmedAt != nil
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (a *Account) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(a.Password) > 0 && !strings.HasPrefix(a.Password, "$2a$") &&
		!strings.HasPrefix(a.Password, "$2b$") && !strings.HasPrefix(a.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[Account.BeforeSave] Ошибка при хешировании пароля для email=%s: %v", a.Email, err)
			return err
		}
		a.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}
