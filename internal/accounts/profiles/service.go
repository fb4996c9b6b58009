package profiles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts"
)

// Service implements the ProfileService interface
type Service struct {
	store  ProfileStore
	users  UserDirectory
	logger *zap.Logger
}

// NewProfileService creates a new profile service. users is only ever queried.
func NewProfileService(store ProfileStore, users UserDirectory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		users:  users,
		logger: logger,
	}
}

// CreateProfile creates a profile for an existing user that has none yet
func (s *Service) CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := req.ToProfile()
	if err != nil {
		return nil, err
	}

	exists, err := s.users.UserExists(ctx, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, accounts.NewOwnerMissingError(profile.UserID.String())
	}

	created, err := s.store.CreateProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile created",
		zap.String("profile_id", created.ID.String()),
		zap.String("user_id", created.UserID.String()))
	return created, nil
}

// GetProfile retrieves a profile by ID
func (s *Service) GetProfile(ctx context.Context, profileID uuid.UUID) (*Profile, error) {
	return s.store.GetProfile(ctx, profileID)
}

// ListProfiles lists profiles with optional filters: user_id, username
func (s *Service) ListProfiles(ctx context.Context, req *ListProfilesRequest) ([]*Profile, error) {
	if req == nil {
		req = &ListProfilesRequest{}
	}
	return s.store.ListProfiles(ctx, req)
}

// UpdateProfile applies a sparse patch to a profile
func (s *Service) UpdateProfile(ctx context.Context, profileID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	exists, err := s.store.ProfileExists(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to check profile existence: %w", err)
	}
	if !exists {
		return nil, accounts.NewProfileNotFoundError(profileID.String())
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.store.UpdateProfile(ctx, profileID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated", zap.String("profile_id", profileID.String()))
	return profile, nil
}

// DeleteProfile deletes a profile and frees its owner for a new one
func (s *Service) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	if err := s.store.DeleteProfile(ctx, profileID); err != nil {
		return err
	}

	s.logger.Info("Profile deleted", zap.String("profile_id", profileID.String()))
	return nil
}

// ReleaseOwner is registered as a user delete hook. The deleted user's
// profile stays readable; only the owner index entry goes away.
func (s *Service) ReleaseOwner(ctx context.Context, userID uuid.UUID) {
	if s.store.ReleaseOwner(ctx, userID) {
		s.logger.Info("Profile owner released after user deletion",
			zap.String("user_id", userID.String()))
	}
}
