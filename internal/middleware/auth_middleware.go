package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/config"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedIdentity is the verified identity stored in the cache and attached to
// the request context.
type CachedIdentity struct {
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

const identityCacheTTL = 10 * time.Minute

// AuthMiddleware validates the JWT from the auth_token cookie or the
// Authorization header and attaches the user's id and role to the context.
// The identity is cached in Redis when available; an inactive or deleted user
// is rejected even with a valid token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Authorization token not provided")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Invalid Authorization header format")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})
		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Invalid token claims")
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			handleAuthError(c, "Invalid user ID format in token")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:identity", userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var identity CachedIdentity
				if json.Unmarshal([]byte(cachedData), &identity) == nil {
					setContextAndProceed(c, &identity)
					return
				}
				slog.Warn("Failed to unmarshal cached identity", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("Redis GET command failed", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, userID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "User from token not found")
			return
		}
		if !dbUser.Active() {
			handleAuthError(c, "Account is deactivated")
			return
		}

		identity := CachedIdentity{
			UserID:   dbUser.ID,
			FullName: dbUser.FullName,
			Role:     dbUser.Role,
		}

		if config.RDB != nil {
			jsonData, err := json.Marshal(identity)
			if err != nil {
				slog.Error("Failed to marshal identity for caching", "error", err, "user_id", userID)
			} else if err := config.RDB.Set(config.Ctx, cacheKey, jsonData, identityCacheTTL).Err(); err != nil {
				slog.Error("Failed to cache identity", "error", err, "user_id", userID)
			}
		}

		setContextAndProceed(c, &identity)
	}
}

func setContextAndProceed(c *gin.Context, identity *CachedIdentity) {
	c.Set("user_id", identity.UserID)
	c.Set("full_name", identity.FullName)
	c.Set("role", identity.Role)
	c.Next()
}

// RequireRoles allows the request through only when the authenticated role is
// in the given list. There is no implicit admin override: routes that admins
// may use must name the admin role.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
		c.Abort()
	}
}

// InvalidateIdentityCache drops the cached identity after a user mutation so
// role or activation changes take effect without waiting out the TTL.
func InvalidateIdentityCache(userID uint) {
	if config.RDB == nil {
		return
	}
	cacheKey := fmt.Sprintf("user:%d:identity", userID)
	if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
		slog.Error("Failed to invalidate identity cache", "error", err, "user_id", userID)
	}
}

func handleAuthError(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": message})
	c.Abort()
}
