package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts"
)

// Service implements the UserService interface
type Service struct {
	store  UserStore
	logger *zap.Logger

	hooksMu sync.RWMutex
	hooks   []DeleteHook
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// OnDelete registers a hook that runs after every successful user deletion
func (s *Service) OnDelete(hook DeleteHook) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// CreateUser validates the request and stores a new user
func (s *Service) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, req.ToUser(), req.Password)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("membership_tier", string(user.MembershipTier)))
	return user, nil
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.store.GetUser(ctx, userID)
}

// ListUsers lists users with optional exact-match filters
func (s *Service) ListUsers(ctx context.Context, req *ListUsersRequest) ([]*User, error) {
	if req == nil {
		req = &ListUsersRequest{}
	}
	return s.store.ListUsers(ctx, req)
}

// UpdateUser applies a sparse patch to a user
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*User, error) {
	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, accounts.NewUserNotFoundError(userID.String())
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User updated",
		zap.String("user_id", userID.String()),
		zap.Bool("password_changed", req.NewPasswordValue() != nil))
	return user, nil
}

// DeleteUser deletes a user and its secret record, then runs the delete hooks.
// Profiles owned by the user are left in place.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.hooksMu.RLock()
	hooks := append([]DeleteHook(nil), s.hooks...)
	s.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, userID)
	}

	s.logger.Info("User deleted", zap.String("user_id", userID.String()))
	return nil
}

// UserExists checks if a user exists
func (s *Service) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.store.UserExists(ctx, userID)
}

// VerifyPassword checks password against the stored secret
func (s *Service) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	return s.store.VerifyPassword(ctx, userID, password)
}
