package service

import (
	"context"
	"time"
	"unicode/utf8"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MinPasswordLength is the shortest password Register accepts
const MinPasswordLength = 8

// LoginResult is returned by a successful Login
type LoginResult struct {
	User  *domain.User
	Token string
}

// AuthService defines the interface for identity business logic
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ValidateToken(token string) (*auth.Claims, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens auth.TokenService
	now    func() time.Time
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens auth.TokenService) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Register creates a Customer account with a hashed password
func (s *authService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	email = repository.NormalizeEmail(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing user")
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		CreatedAt:    s.now().UTC(),
	}

	// a concurrent registration can still win the race; the unique
	// constraint reports it as ErrDuplicateEmail
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password fail with the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Token: token}, nil
}

// ValidateToken returns the claims of a valid token
func (s *authService) ValidateToken(token string) (*auth.Claims, error) {
	return s.tokens.Validate(token)
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}
