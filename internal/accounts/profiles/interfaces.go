package profiles

import (
	"context"

	"github.com/google/uuid"
)

// ProfileStore defines the interface for profile storage operations.
// Implementations enforce the one-profile-per-user and username uniqueness
// constraints atomically with the write.
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *Profile) (*Profile, error)
	GetProfile(ctx context.Context, profileID uuid.UUID) (*Profile, error)
	ListProfiles(ctx context.Context, req *ListProfilesRequest) ([]*Profile, error)
	UpdateProfile(ctx context.Context, profileID uuid.UUID, req *UpdateProfileRequest) (*Profile, error)
	DeleteProfile(ctx context.Context, profileID uuid.UUID) error
	ProfileExists(ctx context.Context, profileID uuid.UUID) (bool, error)
	ReleaseOwner(ctx context.Context, userID uuid.UUID) bool
	Count() int
}

// ProfileService defines the interface for profile service operations
type ProfileService interface {
	CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error)
	GetProfile(ctx context.Context, profileID uuid.UUID) (*Profile, error)
	ListProfiles(ctx context.Context, req *ListProfilesRequest) ([]*Profile, error)
	UpdateProfile(ctx context.Context, profileID uuid.UUID, req *UpdateProfileRequest) (*Profile, error)
	DeleteProfile(ctx context.Context, profileID uuid.UUID) error
}

// UserDirectory is the read-only view of the user store used to validate
// profile owners
type UserDirectory interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}
