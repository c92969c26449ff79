package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/accounts-api/internal/service"
)

// SessionRevoker terminates all sessions for an account. Implemented by the
// refresh token repository.
type SessionRevoker interface {
	RevokeAllForAccount(accountID uint, reason string) error
}

// GateMiddleware applies the account status gate to authenticated routes.
// Must run after RequireAuth. Every route that yields access to protected
// functionality goes through this; a single unguarded route would be a full
// bypass for pending and suspended accounts.
type GateMiddleware struct {
	gate     *service.StatusGateService
	sessions SessionRevoker
}

func NewGateMiddleware(gate *service.StatusGateService, sessions SessionRevoker) *GateMiddleware {
	return &GateMiddleware{gate: gate, sessions: sessions}
}

// RequireActive allows only accounts whose profile status is active.
func (m *GateMiddleware) RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := c.Get("account_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
			c.Abort()
			return
		}
		id := accountID.(uint)

		decision, err := m.gate.Authorize(c.Request.Context(), id)
		if err != nil {
			log.Printf("[GateMiddleware] authorize failed for account ID=%d: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
			c.Abort()
			return
		}

		switch decision {
		case service.DecisionAllow:
			c.Next()
		case service.DecisionRedirectPending:
			c.JSON(http.StatusConflict, gin.H{
				"error":      "Account is awaiting approval",
				"error_type": "redirect_pending",
				"redirect":   "/pending-approval",
			})
			c.Abort()
		case service.DecisionDenySuspended:
			// Suspension also kills whatever sessions the account still has.
			if err := m.sessions.RevokeAllForAccount(id, "account suspended"); err != nil {
				log.Printf("[GateMiddleware] failed to revoke sessions for account ID=%d: %v", id, err)
			}
			c.JSON(http.StatusForbidden, gin.H{
				"error":      "Account is suspended",
				"error_type": "account_suspended",
			})
			c.Abort()
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
			c.Abort()
		}
	}
}
