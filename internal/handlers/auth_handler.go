package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/config"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler issues JWT tokens against stored credentials.
type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

const tokenTTL = 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. A deactivated account cannot log in
// even with correct credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, apperrors.Validation("Email and password are required"))
		return
	}

	var user models.User
	err := h.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		respondError(c, apperrors.Internal(err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}
	if !user.Active() {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Account is deactivated"})
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.JwtKey)
	if err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_login", now)

	c.SetCookie("auth_token", signed, int(tokenTTL.Seconds()), "/", "", false, true)
	respondData(c, http.StatusOK, gin.H{
		"token": signed,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"fullName": user.FullName,
			"role":     user.Role,
		},
	})
}

// Logout handles POST /api/auth/logout by clearing the auth cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	respondMessage(c, http.StatusOK, "Logged out", nil)
}
