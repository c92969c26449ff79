package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/accounts-api/internal/handler/dto"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/internal/service"
)

// AdminHandler обрабатывает административные операции над профилями:
// очередь на одобрение и переходы статусов
type AdminHandler struct {
	gateService *service.StatusGateService
}

func NewAdminHandler(gateService *service.StatusGateService) *AdminHandler {
	return &AdminHandler{gateService: gateService}
}

// ListProfiles возвращает профили, опционально отфильтрованные по статусу
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	actorID := c.MustGet("account_id").(uint)
	status := c.Query("status")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	profiles, total, err := h.gateService.ListProfiles(c.Request.Context(), actorID, status, limit, offset)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	resp := dto.ProfileListResponse{
		Profiles: make([]dto.ProfileResponse, 0, len(profiles)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for i := range profiles {
		resp.Profiles = append(resp.Profiles, dto.NewProfileResponse(&profiles[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveProfile переводит профиль из pending в active
func (h *AdminHandler) ApproveProfile(c *gin.Context) {
	h.transition(c, "approved", h.gateService.Approve)
}

// RejectProfile удаляет профиль вместе с учетной записью
func (h *AdminHandler) RejectProfile(c *gin.Context) {
	h.transition(c, "rejected", h.gateService.Reject)
}

// SuspendProfile переводит профиль из active в suspended
func (h *AdminHandler) SuspendProfile(c *gin.Context) {
	h.transition(c, "suspended", h.gateService.Suspend)
}

// ReinstateProfile переводит профиль из suspended обратно в active
func (h *AdminHandler) ReinstateProfile(c *gin.Context) {
	h.transition(c, "reinstated", h.gateService.Reinstate)
}

// transition factors out the shared shape of the four admin status actions:
// actor from the auth context, target from the path, then one service call.
func (h *AdminHandler) transition(c *gin.Context, verb string, op func(ctx context.Context, actorID, targetID uint) error) {
	actorID := c.MustGet("account_id").(uint)
	targetID := c.MustGet("targetID").(uint)

	if err := op(c.Request.Context(), actorID, targetID); err != nil {
		h.handleAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": targetID,
		"message":    "account " + verb,
	})
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	log.Printf("[AdminHandler] error: %v", err)

	switch {
	case errors.Is(err, service.ErrSelfModification):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot modify your own profile", "error_type": "self_modification"})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Administrative rights required", "error_type": "not_authorized"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}
