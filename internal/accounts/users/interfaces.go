package users

import (
	"context"

	"github.com/google/uuid"
)

// UserStore defines the interface for user storage operations. Implementations
// enforce email and phone uniqueness atomically with the write.
type UserStore interface {
	CreateUser(ctx context.Context, user *User, password string) (*User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, req *ListUsersRequest) ([]*User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error)
	Count() int
}

// UserService defines the interface for user service operations
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, req *ListUsersRequest) ([]*User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error)
}

// DeleteHook runs after a user has been removed
type DeleteHook func(ctx context.Context, userID uuid.UUID)
