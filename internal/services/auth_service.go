package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
	"github.com/salesjourney/backend/internal/utils"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 30 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInviteCodeUnknown  = errors.New("invalid invite code")
	ErrUserExists         = errors.New("user already exists")
)

type AuthService struct {
	userRepo    *repositories.UserRepository
	companyRepo *repositories.CompanyRepository
	gamRepo     *repositories.GamificationRepository
}

func NewAuthService(userRepo *repositories.UserRepository, companyRepo *repositories.CompanyRepository, gamRepo *repositories.GamificationRepository) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		gamRepo:     gamRepo,
	}
}

// Register signs an employee up into the company behind the invite code
// and opens their coin wallet.
func (s *AuthService) Register(ctx context.Context, username, email, password, inviteCode string) (*models.User, string, string, error) {
	company, err := s.companyRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, "", "", err
	}
	if company == nil {
		return nil, "", "", ErrInviteCodeUnknown
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if existing, _ := s.userRepo.FindByEmail(ctx, email); existing != nil {
		return nil, "", "", ErrUserExists
	}
	if username != "" {
		if existing, _ := s.userRepo.FindByUsername(ctx, username); existing != nil {
			return nil, "", "", ErrUserExists
		}
	}

	hash, err := utils.Hash(password)
	if err != nil {
		return nil, "", "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		CompanyID:    &company.ID,
	}
	if username != "" {
		user.Username = &username
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", "", err
	}

	profile := &models.GamificationProfile{UserID: user.ID}
	if err := s.gamRepo.CreateProfile(ctx, profile); err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := issueTokens(user.ID)
	if err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

// Login accepts either an email or a username as the identity.
func (s *AuthService) Login(ctx context.Context, identity, password string) (*models.User, string, string, error) {
	identity = strings.TrimSpace(identity)
	user, err := s.userRepo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, "", "", err
	}
	if user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := utils.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := issueTokens(user.ID)
	if err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

// Refresh rotates the token pair after checking the refresh token signature
// and that the user still exists.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := utils.VerifyJWT(refreshToken, utils.RefreshTokenSecret)
	if err != nil {
		return "", "", errors.New("invalid or expired refresh token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", "", errors.New("invalid or expired refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return "", "", errors.New("user not found")
	}

	return issueTokens(user.ID)
}

// ChangePassword sets a new password. The current password is required
// unless the account is flagged for a forced change, which is how freshly
// provisioned owners get in.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	if !user.MustChangePassword {
		if err := utils.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
			return ErrInvalidCredentials
		}
	}

	hash, err := utils.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, hash, false)
}

func issueTokens(userID uuid.UUID) (string, string, error) {
	accessToken, err := utils.GenerateJWT(userID, AccessTokenDuration, utils.AccessTokenSecret)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := utils.GenerateJWT(userID, RefreshTokenDuration, utils.RefreshTokenSecret)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
