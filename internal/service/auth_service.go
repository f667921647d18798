package service

import (
	"context"
	"time"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/util"
	"botdeck/backend/pkg/crypto"
	"botdeck/backend/pkg/jwt"

	"github.com/google/uuid"
)

const (
	sessionTTL      = 7 * 24 * time.Hour
	accessTokenLife = 15 * time.Minute
)

// AuthService owns the account lifecycle for dashboard users: signup,
// login/logout, token refresh and the token checks the middleware runs on
// every authenticated request.
type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *jwt.JWTManager
}

func NewAuthService(userRepo *repository.UserRepository, jwtManager *jwt.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register creates a dashboard account. New accounts start without exchange
// API keys, so trading stays locked until the user links a key pair.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.SafeUser, error) {
	if !crypto.ValidatePasswordStrength(req.Password) {
		return nil, util.ErrValidation("Password must be 8-100 characters")
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to hash password")
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
		HasAPIKey:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err.Error() == "username already exists" {
			return nil, util.ErrConflict("Username already exists")
		}
		if err.Error() == "email already exists" {
			return nil, util.ErrConflict("Email already exists")
		}
		return nil, util.ErrInternalServer("Failed to create user")
	}

	return user.ToSafeUser(), nil
}

// Login verifies credentials and opens a session. The error message does not
// distinguish an unknown username from a wrong password.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest, userAgent, ip string) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, util.NewAppError(401, util.ErrCodeInvalidCredentials, "Invalid username or password")
	}

	if !user.IsActive() {
		return nil, util.ErrForbidden("User account is inactive")
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, util.NewAppError(401, util.ErrCodeInvalidCredentials, "Invalid username or password")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate access token")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate refresh token")
	}

	now := time.Now()
	session := &model.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(sessionTTL),
		CreatedAt:    now,
		LastUsedAt:   now,
		UserAgent:    userAgent,
		IP:           ip,
	}

	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, util.ErrInternalServer("Failed to create session")
	}

	// Last-login is cosmetic, a failed write must not block the login.
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID)

	return &model.AuthResponse{
		User:         user.ToSafeUser(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTokenLife.Seconds()),
	}, nil
}

// RefreshToken trades a valid refresh token for a fresh access token. The
// refresh token itself is not rotated, the client keeps using it until the
// session expires or the user logs out.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Invalid refresh token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to check token status")
	}
	if blacklisted {
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Token has been revoked")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}

	if !user.IsActive() {
		return nil, util.ErrForbidden("User account is inactive")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to generate access token")
	}

	return &model.AuthResponse{
		User:         user.ToSafeUser(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTokenLife.Seconds()),
	}, nil
}

// Logout blacklists both tokens for their remaining lifetime so a stolen
// token cannot keep driving bots after the user signs out. An expired access
// token is fine, the refresh token still gets revoked.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if claims, err := s.jwtManager.ValidateToken(accessToken); err == nil {
		expiration := time.Until(claims.ExpiresAt.Time)
		if expiration > 0 {
			if err := s.userRepo.BlacklistToken(ctx, accessToken, expiration); err != nil {
				return util.ErrInternalServer("Failed to blacklist access token")
			}
		}
	}

	refreshClaims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		// Already invalid, nothing to revoke.
		return nil
	}

	expiration := time.Until(refreshClaims.ExpiresAt.Time)
	if expiration > 0 {
		if err := s.userRepo.BlacklistToken(ctx, refreshToken, expiration); err != nil {
			return util.ErrInternalServer("Failed to blacklist refresh token")
		}
	}

	return nil
}

// GetUserByID returns the sanitized profile for an account.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.SafeUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}

	return user.ToSafeUser(), nil
}

// ValidateToken is the middleware entry point. It checks the signature, the
// blacklist and the account status before any bot or order route runs.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Invalid token")
	}

	blacklisted, err := s.userRepo.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, util.ErrInternalServer("Failed to check token status")
	}
	if blacklisted {
		return nil, util.NewAppError(401, util.ErrCodeTokenInvalid, "Token has been revoked")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, util.ErrNotFound("User not found")
	}

	if !user.IsActive() {
		return nil, util.ErrForbidden("User account is inactive")
	}

	return user, nil
}
