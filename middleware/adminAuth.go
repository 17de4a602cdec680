package middleware

import (
	"net/http"
	"strings"

	"agencyhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by AdminAuthorizer.
const (
	ContextIsAdmin    = "isAdmin"
	ContextAdminID    = "adminID"
	ContextAdminToken = "adminToken"
)

// AdminAuthorizer validates admin bearer tokens: HS256 JWTs carrying role=admin that have
// not been revoked at logout.
type AdminAuthorizer struct {
	Secret  []byte
	Revoked utils.RevocationStore
	Logger  *zap.Logger
}

func NewAdminAuthorizer(secret string, revoked utils.RevocationStore, logger *zap.Logger) *AdminAuthorizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAuthorizer{Secret: []byte(secret), Revoked: revoked, Logger: logger}
}

// RequireAdmin rejects the request unless it carries a valid admin token.
func (a *AdminAuthorizer) RequireAdmin() gin.HandlerFunc {
	return a.middleware(false)
}

// OptionalAdmin lets anonymous requests through and marks valid admins in the context. A
// token that is present but invalid is still rejected.
func (a *AdminAuthorizer) OptionalAdmin() gin.HandlerFunc {
	return a.middleware(true)
}

func (a *AdminAuthorizer) middleware(optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextIsAdmin, false)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if optional {
				c.Next()
				return
			}
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		adminID, err := utils.ExtractAdminSubject(a.Secret, tokenString)
		if err != nil {
			a.Logger.Debug("Admin token rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "Invalid or expired admin token")
			return
		}

		if a.Revoked != nil {
			revoked, err := a.Revoked.IsRevoked(c.Request.Context(), utils.HashToken(tokenString))
			if err != nil {
				a.Logger.Error("Failed to check token revocation", zap.Error(err))
				utils.JSONError(c, http.StatusInternalServerError, "Unable to verify credentials")
				return
			}
			if revoked {
				utils.JSONError(c, http.StatusUnauthorized, "Token has been revoked")
				return
			}
		}

		c.Set(ContextIsAdmin, true)
		c.Set(ContextAdminID, adminID)
		c.Set(ContextAdminToken, tokenString)
		c.Next()
	}
}

// IsAdmin reports whether AdminAuthorizer accepted the request's token.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}
