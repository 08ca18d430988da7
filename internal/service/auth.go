package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"photovault/internal/auth"
	"photovault/internal/config"
	"photovault/internal/model"
	"photovault/internal/repository"
)

var (
	ErrUsernameTooShort   = errors.New("username must be at least 6 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

const minCredentialLength = 6

// AuthService defines account registration and login.
type AuthService interface {
	// Register validates and creates a new account.
	Register(ctx context.Context, username, email, password string) (*model.User, error)

	// Login verifies the credentials and issues a signed token.
	Login(ctx context.Context, username, password string) (string, *model.User, error)

	// GetUser returns the account for an authenticated id.
	GetUser(ctx context.Context, id string) (*model.User, error)
}

type authService struct {
	users repository.UserRepository
	cfg   config.AuthConfig
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repository.UserRepository, cfg config.AuthConfig) AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	return &authService{users: users, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < minCredentialLength {
		return nil, ErrUsernameTooShort
	}
	if len(password) < minCredentialLength {
		return nil, ErrPasswordTooShort
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	return s.users.Create(ctx, user)
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(s.cfg.JWTSecret, user.ID, user.Username, s.cfg.TokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
