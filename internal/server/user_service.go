package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireproof/hireproof/internal/config"
	"github.com/hireproof/hireproof/internal/db"
	"github.com/hireproof/hireproof/internal/types"
)

// UserStore is the account persistence surface the auth flow depends on.
type UserStore interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, name, email, role, company, passwordHash string) (uuid.UUID, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
}

// UserService provides business logic for account operations
type UserService struct {
	store          UserStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService. store may be nil when persistence
// is disabled; auth endpoints then report that accounts are unavailable.
func NewUserService(store UserStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
	}
}

// toAPIUser converts a db.User to the API shape, excluding the password hash
func toAPIUser(row *db.User) *types.User {
	if row == nil {
		return nil
	}
	return &types.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      types.Role(row.Role),
		Company:   row.Company,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// Register creates a new account with password authentication
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.User, error) {
	if s.store == nil {
		return nil, &ErrPersistenceDisabled{}
	}

	exists, err := s.store.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.store.CreateUser(ctx, req.Name, req.Email, string(req.Role), req.Company, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	row, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("created user not found: %s", userID)
	}

	return toAPIUser(row), nil
}

// Login authenticates an account and returns its user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	if s.store == nil {
		return nil, &ErrPersistenceDisabled{}
	}

	row, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	// Security: the same generic error for unknown email and wrong password
	if row == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, row.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return toAPIUser(row), nil
}

// Get retrieves an account by ID
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	if s.store == nil {
		return nil, &ErrPersistenceDisabled{}
	}

	row, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if row == nil {
		return nil, &ErrUserNotFound{UserID: userID}
	}
	return toAPIUser(row), nil
}
