package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims содержит пользовательские поля для access токена
type Claims struct {
	AccountID uint   `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет access токены, подписанные HMAC ключом.
type JWTService struct {
	signingKey []byte
	expiry     time.Duration
	issuer     string
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(signingKey string, expiry time.Duration, issuer string) (*JWTService, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("JWT signing key is required")
	}
	if expiry <= 0 {
		expiry = 1 * time.Hour
	}
	if issuer == "" {
		issuer = "accounts-api"
	}
	return &JWTService{
		signingKey: []byte(signingKey),
		expiry:     expiry,
		issuer:     issuer,
	}, nil
}

// GenerateToken выпускает подписанный access токен для аккаунта
func (s *JWTService) GenerateToken(accountID uint, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token expired: %w", err)
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// AccessTokenExpiry возвращает срок жизни access токена
func (s *JWTService) AccessTokenExpiry() time.Duration {
	return s.expiry
}
