package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/middleware"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler manages user accounts. Listing is open to admin and supervisor;
// mutations are admin only (enforced at the route level).
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	users := make([]models.User, 0)
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}
	respondData(c, http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	var fields []apperrors.FieldError
	if !strings.Contains(req.Email, "@") {
		fields = append(fields, apperrors.FieldError{Field: "email", Message: "Please enter a valid email"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "fullName", Message: "Full name is required"})
	}
	if len(req.Password) < 6 {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if !models.ValidRole(req.Role) {
		fields = append(fields, apperrors.FieldError{Field: "role", Message: "Invalid role"})
	}
	if len(fields) > 0 {
		respondError(c, apperrors.Validation("Validation failed", fields...))
		return
	}

	email := strings.ToLower(req.Email)
	var existing models.User
	err := h.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		respondError(c, apperrors.Validation("Email already exists"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, apperrors.Internal(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}

	user := models.User{
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: string(hashed),
		Role:         req.Role,
		Phone:        req.Phone,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, apperrors.Validation("Email already exists"))
			return
		}
		respondError(c, apperrors.Internal(err))
		return
	}

	respondMessage(c, http.StatusCreated, "User created successfully", gin.H{"user": user})
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"isActive"`
}

// Update handles PUT /api/users/:id as a partial update.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperrors.NotFound("User not found"))
			return
		}
		respondError(c, apperrors.Internal(err))
		return
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.ToLower(*req.Email)
		if !strings.Contains(email, "@") {
			respondError(c, apperrors.Validation("Validation failed",
				apperrors.FieldError{Field: "email", Message: "Please enter a valid email"}))
			return
		}
		if email != user.Email {
			updates["email"] = email
		}
	}
	if req.FullName != nil && *req.FullName != user.FullName {
		updates["full_name"] = *req.FullName
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			respondError(c, apperrors.Validation("Validation failed",
				apperrors.FieldError{Field: "role", Message: "Invalid role"}))
			return
		}
		if *req.Role != user.Role {
			updates["role"] = *req.Role
		}
	}
	if req.Phone != nil && *req.Phone != user.Phone {
		updates["phone"] = *req.Phone
	}
	if req.IsActive != nil && *req.IsActive != user.Active() {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		respondError(c, apperrors.Validation("No changes detected"))
		return
	}
	updates["updated_at"] = time.Now()

	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, apperrors.Validation("Email already exists"))
			return
		}
		respondError(c, apperrors.Internal(err))
		return
	}

	middleware.InvalidateIdentityCache(user.ID)
	respondMessage(c, http.StatusOK, "User updated successfully", gin.H{"user": user})
}

// Delete handles DELETE /api/users/:id. Admins cannot delete their own
// account.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if id == currentRequester(c).ID {
		respondError(c, apperrors.Validation("You cannot delete your own account"))
		return
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperrors.NotFound("User not found"))
			return
		}
		respondError(c, apperrors.Internal(err))
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		respondError(c, apperrors.Internal(err))
		return
	}

	middleware.InvalidateIdentityCache(user.ID)
	respondMessage(c, http.StatusOK, "User deleted successfully", nil)
}
