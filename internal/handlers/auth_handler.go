package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/middleware"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/internal/services"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
)

// AuthHandler serves registration, login and profile endpoints.
type AuthHandler struct {
	auth   *services.AuthService
	users  *database.UserRepository
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *services.AuthService, users *database.UserRepository, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, logger: logger}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.auth.Register(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondCreated(c, "Account created successfully", resp)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.auth.Login(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, "Login successful", resp)
}

// Profile handles GET /api/v1/user/profile behind auth middleware.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		respondError(c, h.logger, apperrors.Unauthorized("missing authentication"))
		return
	}

	user, err := h.users.GetUserByID(userID)
	if err != nil {
		respondError(c, h.logger, apperrors.Internal("failed to load user", err))
		return
	}
	if user == nil {
		respondError(c, h.logger, apperrors.NotFound("user"))
		return
	}
	respondOK(c, "Profile retrieved successfully", user)
}
