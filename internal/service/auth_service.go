package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookinghub/internal/auth"
	"bookinghub/internal/db"
	apperrors "bookinghub/internal/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ProfileStore persists user profiles.
type ProfileStore interface {
	Create(ctx context.Context, p *db.Profile) error
	ByEmail(ctx context.Context, email string) (*db.Profile, error)
	ByID(ctx context.Context, id uuid.UUID) (*db.Profile, error)
}

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	profiles ProfileStore
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(profiles ProfileStore, secret string) *AuthService {
	return &AuthService{profiles: profiles, secret: secret, tokenTTL: 24 * time.Hour}
}

// Register creates a profile and returns a signed session token.
func (s *AuthService) Register(ctx context.Context, email, fullName, phone, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperrors.Validationf("a valid email address is required")
	}
	if len(password) < 8 {
		return "", apperrors.Validationf("password must be at least 8 characters")
	}
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}

	if _, err := s.profiles.ByEmail(ctx, email); err == nil {
		return "", apperrors.Validationf("an account with this email already exists")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", apperrors.Transient("profile lookup", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	profile := &db.Profile{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		Phone:        nullString(phone),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return "", apperrors.Transient("profile creation", err)
	}

	return auth.IssueToken(s.secret, profile, s.tokenTTL)
}

// Login verifies credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.profiles.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", apperrors.Transient("profile lookup", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return auth.IssueToken(s.secret, profile, s.tokenTTL)
}
