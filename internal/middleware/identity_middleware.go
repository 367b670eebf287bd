package middleware

import (
	"net/http"
	"strings"

	"dashboard_backend/internal/config"
	"dashboard_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is the gin context key holding the resolved caller identity.
const ContextUserIDKey = utils.ContextUserIDKey

// IdentityMiddleware resolves the caller identity according to cfg.Mode and
// stores it under ContextUserIDKey. Requests without an identity are rejected
// with 401 before any handler runs.
func IdentityMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	if cfg.Mode == config.AuthModeJWT {
		return bearerIdentity(cfg)
	}
	return headerIdentity(cfg.Header)
}

// headerIdentity trusts a client-supplied header verbatim.
// Only suitable behind a gateway that sets the header itself.
func headerIdentity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgUserIDRequired))
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// bearerIdentity derives the identity from a verified HS256 token.
func bearerIdentity(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgUserIDRequired))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgInvalidToken))
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			utils.LogDebug("Rejected bearer token", map[string]interface{}{"reason": err.Error()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, utils.MsgInvalidToken))
			return
		}

		c.Set(ContextUserIDKey, claims.Principal())
		c.Next()
	}
}

// UserIDFromContext returns the identity set by IdentityMiddleware.
func UserIDFromContext(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.GetString(ContextUserIDKey))
	return userID, userID != ""
}
