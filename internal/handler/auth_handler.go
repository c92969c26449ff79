package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/accounts-api/internal/handler/dto"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/internal/service"
)

// AuthHandler обрабатывает запросы регистрации, входа и подтверждения email
type AuthHandler struct {
	accountService      *service.AccountService
	sessionService      *service.SessionService
	verificationService *service.VerificationService
	gateService         *service.StatusGateService
}

func NewAuthHandler(
	accountService *service.AccountService,
	sessionService *service.SessionService,
	verificationService *service.VerificationService,
	gateService *service.StatusGateService,
) *AuthHandler {
	return &AuthHandler{
		accountService:      accountService,
		sessionService:      sessionService,
		verificationService: verificationService,
		gateService:         gateService,
	}
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	// Status is accepted but ignored: new profiles always start pending.
	Status string `json:"status,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Signup создает учетную запись, профиль со статусом pending и отправляет код
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}
	if req.Status != "" {
		// Caller-supplied status never sticks; log attempts to sneak one in.
		log.Printf("[AuthHandler] signup for %s supplied status=%q, ignoring", req.Email, req.Status)
	}

	account, err := h.accountService.CreateIdentity(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	profile, err := h.gateService.EnsureProfile(c.Request.Context(), account.ID, account.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Code delivery is best effort: the account exists either way and the
	// client can always hit resend-code.
	if _, err := h.verificationService.Issue(c.Request.Context(), account.Email, &account.ID, 0); err != nil {
		log.Printf("[AuthHandler] failed to issue verification code for %s: %v", account.Email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": dto.NewAccountResponse(account),
		"profile": dto.NewProfileResponse(profile),
		"message": "verification code sent",
	})
}

// Login аутентифицирует и проверяет статус профиля перед выдачей токенов
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}

	account, err := h.accountService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	tokens, err := h.sessionService.Login(c.Request.Context(), account, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":       dto.NewAccountResponse(account),
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
		"token_type":    "Bearer",
	})
}

// RefreshToken обновляет пару токенов; статус профиля проверяется заново
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}

	tokens, err := h.sessionService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
		"token_type":    "Bearer",
	})
}

// Logout отзывает refresh токен
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}

	if err := h.sessionService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// VerifyEmail проверяет 6-значный код
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}

	result, err := h.verificationService.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := gin.H{"message": "email verified"}
	if result.AccountID != nil {
		resp["account_id"] = *result.AccountID
	}
	c.JSON(http.StatusOK, resp)
}

// ResendCode инвалидирует старые коды и отправляет новый
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "error_type": "validation_error"})
		return
	}

	if _, err := h.verificationService.Resend(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
}

// VerificationStatus возвращает состояние актуального кода для email
func (h *AuthHandler) VerificationStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required", "error_type": "validation_error"})
		return
	}

	status, err := h.verificationService.Status(c.Request.Context(), email)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetMe возвращает учетную запись текущего пользователя
func (h *AuthHandler) GetMe(c *gin.Context) {
	accountID := c.MustGet("account_id").(uint)
	account, err := h.accountService.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": dto.NewAccountResponse(account)})
}

// handleError маппит ошибки сервисов на HTTP статусы и стабильные error_type.
// Инфраструктурные ошибки всегда уходят как 500 и никогда не маскируются
// под доменные исходы.
func (h *AuthHandler) handleError(c *gin.Context, err error) {
	log.Printf("[AuthHandler] error: %v", err)

	switch {
	case errors.Is(err, service.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code", "error_type": "invalid_code"})
	case errors.Is(err, service.ErrCodeExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verification code expired", "error_type": "code_expired"})
	case errors.Is(err, service.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, request a new code", "error_type": "too_many_attempts"})
	case errors.Is(err, service.ErrAccountNotEligible):
		c.JSON(http.StatusConflict, gin.H{"error": "No unconfirmed account for this email", "error_type": "account_not_eligible"})
	case errors.Is(err, service.ErrAccountPending):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Account is awaiting approval",
			"error_type": "redirect_pending",
			"redirect":   "/pending-approval",
		})
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended", "error_type": "account_suspended"})
	case errors.Is(err, service.ErrSelfModification):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot modify your own profile", "error_type": "self_modification"})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Administrative rights required", "error_type": "not_authorized"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired", "error_type": "token_expired"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource state conflict", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "error_type": "validation_error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}
