package services

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnandNexkites/citypattle/internal/database"
	"github.com/AnandNexkites/citypattle/internal/models"
	"github.com/AnandNexkites/citypattle/pkg/apperrors"
	"github.com/AnandNexkites/citypattle/pkg/jwt"
)

// AuthService handles registration and login.
type AuthService struct {
	users  *database.UserRepository
	tokens *jwt.Service
	logger *logrus.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(users *database.UserRepository, tokens *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates an account and returns a fresh token pair.
func (s *AuthService) Register(req *models.RegisterRequest) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		City:         req.City,
	}
	if err := s.users.CreateUser(user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Duplicate("an account with this email or phone already exists")
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return s.issueTokens(user)
}

// Login verifies credentials and returns a fresh token pair.
func (s *AuthService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(req.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal("failed to generate refresh token", err)
	}
	return &models.AuthResponse{
		UserID:       user.ID,
		FullName:     user.FullName,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
