package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"
	"memories-backend/internal/models"
	"memories-backend/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up
const MinPasswordLength = 6

// AuthService is the identity provider: it owns credentials and issues tokens
type AuthService struct {
	users     UserStore
	tokens    TokenStore
	jwtSecret []byte
	expiry    time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens TokenStore, cfg config.JWTConfig) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		jwtSecret: []byte(cfg.Secret),
		expiry:    time.Duration(cfg.ExpiryDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Auth(apperr.CodeInvalidEmail, err)
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.Auth(apperr.CodeWeakPassword, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// IdentityOf returns the session identity of a user
func IdentityOf(user *models.User) session.Identity {
	return session.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.Name,
	}
}

// SignUp creates an account with the default preferences and signs it in
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*session.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	notifications, darkMode := true, false
	user := &models.User{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(name),
		Email:              email,
		PasswordHash:       hash,
		EmailNotifications: &notifications,
		DarkMode:           &darkMode,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Auth(apperr.CodeEmailInUse, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(user)
}

// SignIn checks the credential and issues a token
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Auth(apperr.CodeInvalidCredential, nil)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Auth(apperr.CodeInvalidCredential, nil)
	}
	if user.Disabled {
		return nil, apperr.Auth(apperr.CodeUserDisabled, nil)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*session.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"jti":     uuid.New().String(),
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &session.Session{
		Token:     tokenString,
		Identity:  IdentityOf(user),
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

func (s *AuthService) parse(tokenString string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, apperr.Auth(apperr.CodeSessionExpired, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperr.Auth(apperr.CodeSessionExpired, fmt.Errorf("invalid token claims"))
	}
	return claims, nil
}

// Verify resolves a token to its session. Bad, expired or revoked tokens
// return an AuthError; store failures are returned as they are.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*session.Session, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	userID, _ := claims["user_id"].(string)
	jti, _ := claims["jti"].(string)
	if userID == "" || jti == "" {
		return nil, apperr.Auth(apperr.CodeSessionExpired, fmt.Errorf("user_id or jti not found in token"))
	}

	revoked, err := s.tokens.IsRevoked(ctx, jti)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.Auth(apperr.CodeSessionExpired, fmt.Errorf("token revoked"))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Auth(apperr.CodeUserNotFound, err)
		}
		return nil, err
	}
	if user.Disabled {
		return nil, apperr.Auth(apperr.CodeUserDisabled, nil)
	}

	sess := &session.Session{Token: tokenString, Identity: IdentityOf(user)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}

// SignOut revokes the token until it would have expired
func (s *AuthService) SignOut(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return apperr.Auth(apperr.CodeSessionExpired, fmt.Errorf("jti not found in token"))
	}
	expiresAt := s.now().Add(s.expiry)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	if err := s.tokens.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// GetUser returns the user document
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the display name and/or email and returns the updated user
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, name, email *string) (*models.User, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Required("name")
		}
		name = &trimmed
	}
	if email != nil {
		normalized, err := normalizeEmail(*email)
		if err != nil {
			return nil, err
		}
		email = &normalized
	}
	if name == nil && email == nil {
		return nil, apperr.Invalid("profile", apperr.ReasonUnchanged)
	}

	if err := s.users.UpdateProfile(ctx, userID, name, email); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, apperr.Auth(apperr.CodeEmailInUse, err)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")
	return s.GetUser(ctx, userID)
}

// UpdatePassword replaces the password after checking the confirmation
func (s *AuthService) UpdatePassword(ctx context.Context, userID, password, confirm string) error {
	if password == "" {
		return apperr.Required("password")
	}
	if password != confirm {
		return apperr.Invalid("password", apperr.ReasonMismatch)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Password updated")
	return nil
}
