package handlers

import (
	"net/http"
	"strings"
	"time"

	"agencyhub/middleware"
	"agencyhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler signs the back-office account in and out.
type AdminHandler struct {
	Email        string
	PasswordHash string
	Secret       []byte
	TokenTTL     time.Duration
	Revoked      utils.RevocationStore
}

func NewAdminHandler(email, passwordHash, secret string, ttl time.Duration, revoked utils.RevocationStore) *AdminHandler {
	return &AdminHandler{
		Email:        email,
		PasswordHash: passwordHash,
		Secret:       []byte(secret),
		TokenTTL:     ttl,
		Revoked:      revoked,
	}
}

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler handles POST /api/admin/login.
func (h *AdminHandler) LoginHandler(c *gin.Context) {
	logger := getLogger(c)

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	if h.PasswordHash == "" {
		logger.Error("Admin login attempted but no password hash is configured")
		utils.JSONError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	emailOK := strings.EqualFold(strings.TrimSpace(req.Email), h.Email)
	if err := bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(req.Password)); err != nil || !emailOK {
		logger.Warn("Admin login failed", zap.String("email", req.Email))
		utils.JSONError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(h.Secret, h.Email, utils.RoleAdmin, h.TokenTTL)
	if err != nil {
		logger.Error("Failed to issue admin token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to sign in")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": time.Now().Add(h.TokenTTL).UTC(),
	})
}

// LogoutHandler handles POST /api/admin/logout and revokes the presented token.
func (h *AdminHandler) LogoutHandler(c *gin.Context) {
	token := c.GetString(middleware.ContextAdminToken)
	if err := h.Revoked.Revoke(c.Request.Context(), utils.HashToken(token), h.TokenTTL); err != nil {
		getLogger(c).Error("Failed to revoke admin token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"message": "Signed out"})
}
