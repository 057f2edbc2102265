package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hypnosapp/hypnos-backend/internal/apierr"
	"github.com/hypnosapp/hypnos-backend/internal/logger"
	"github.com/hypnosapp/hypnos-backend/internal/repos"
	"github.com/hypnosapp/hypnos-backend/internal/types"
)

type RegisterInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type AuthResult struct {
	User         *types.User `json:"user"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ParseAccessToken(tokenString string) (uuid.UUID, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecret     []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecret:     []byte(jwtSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apierr.Validation(fmt.Errorf("email and password are required"))
	}

	exists, err := s.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Validation(fmt.Errorf("email already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.Create(ctx, tx, &types.User{
			Email:     email,
			Password:  string(hashed),
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Plan:      types.PlanFree,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		s.log.Error("Registration failed", "error", err)
		return nil, err
	}
	return result, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		s.log.Error("Login failed", "user_id", user.ID, "error", err)
		return nil, err
	}
	return result, nil
}

// Refresh rotates the session: the presented refresh token must match
// the stored one and be unexpired, and both tokens are reissued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid refresh token: %w", err))
	}

	stored, err := s.userTokenRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if stored == nil || stored.RefreshToken != refreshToken {
		return nil, apierr.Unauthorized(fmt.Errorf("refresh token not recognized"))
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, apierr.Unauthorized(fmt.Errorf("refresh token expired"))
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var result *AuthResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err = s.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		s.log.Error("Refresh failed", "user_id", userID, "error", err)
		return nil, err
	}
	return result, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userTokenRepo.DeleteByUserID(ctx, nil, userID); err != nil {
		s.log.Error("Logout failed", "user_id", userID, "error", err)
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

func (s *authService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	return s.parseToken(tokenString, "access")
}

func (s *authService) AccessTTL() time.Duration { return s.accessTTL }

func (s *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*AuthResult, error) {
	accessToken, err := s.signToken(user.ID, "access", s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.signToken(user.ID, "refresh", s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// One live session per user: replace any previous refresh token.
	if err := s.userTokenRepo.DeleteByUserID(ctx, tx, user.ID); err != nil {
		return nil, fmt.Errorf("clear previous refresh token: %w", err)
	}
	if _, err := s.userTokenRepo.Create(ctx, tx, &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

func (s *authService) signToken(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	// jti keeps tokens unique even when two are signed within the same
	// second, so rotation always invalidates the old one.
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"jti":  uuid.NewString(),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) parseToken(tokenString, expectedType string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != expectedType {
		return uuid.Nil, fmt.Errorf("unexpected token type %q", tokenType)
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return userID, nil
}
