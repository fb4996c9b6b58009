package profiles

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eion/accounts/internal/accounts"
)

// InMemoryStore implements ProfileStore interface with in-memory storage
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*Profile
	byUser   map[uuid.UUID]uuid.UUID // user id -> profile id
	order    []uuid.UUID
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[uuid.UUID]*Profile),
		byUser:   make(map[uuid.UUID]uuid.UUID),
	}
}

// CreateProfile stores profile if its owner has no profile yet and its
// username is free
func (s *InMemoryStore) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.ID]; exists {
		return nil, fmt.Errorf("profile with id %s already exists", profile.ID)
	}
	if _, owned := s.byUser[profile.UserID]; owned {
		return nil, accounts.NewOwnerHasProfileError(profile.UserID.String())
	}
	if s.usernameTaken(profile.Username, uuid.Nil) {
		return nil, accounts.NewUsernameExistsError(profile.Username)
	}

	stored := profile.clone()
	s.profiles[stored.ID] = stored
	s.byUser[stored.UserID] = stored.ID
	s.order = append(s.order, stored.ID)

	return stored.clone(), nil
}

// GetProfile retrieves a profile by ID
func (s *InMemoryStore) GetProfile(ctx context.Context, profileID uuid.UUID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, exists := s.profiles[profileID]
	if !exists {
		return nil, accounts.NewProfileNotFoundError(profileID.String())
	}
	return profile.clone(), nil
}

// ListProfiles returns the profiles passing req's filters in insertion order
func (s *InMemoryStore) ListProfiles(ctx context.Context, req *ListProfilesRequest) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Profile, 0, len(s.order))
	for _, id := range s.order {
		profile := s.profiles[id]
		if req.Matches(profile) {
			result = append(result, profile.clone())
		}
	}
	return result, nil
}

// UpdateProfile applies the present fields of req. The owner never changes.
func (s *InMemoryStore) UpdateProfile(ctx context.Context, profileID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.profiles[profileID]
	if !exists {
		return nil, accounts.NewProfileNotFoundError(profileID.String())
	}

	updated := current.clone()
	req.ApplyTo(updated)
	updated.UserID = current.UserID

	if req.Username.HasValue() && s.usernameTaken(updated.Username, profileID) {
		return nil, accounts.NewUsernameExistsError(updated.Username)
	}

	updated.UpdatedAt = nowUTC()
	s.profiles[profileID] = updated
	return updated.clone(), nil
}

// DeleteProfile removes a profile and its owner index entry
func (s *InMemoryStore) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, exists := s.profiles[profileID]
	if !exists {
		return accounts.NewProfileNotFoundError(profileID.String())
	}

	delete(s.profiles, profileID)
	if owned, ok := s.byUser[profile.UserID]; ok && owned == profileID {
		delete(s.byUser, profile.UserID)
	}
	for i, id := range s.order {
		if id == profileID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ProfileExists checks if a profile exists in storage
func (s *InMemoryStore) ProfileExists(ctx context.Context, profileID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.profiles[profileID]
	return exists, nil
}

// ReleaseOwner drops the owner index entry of userID, leaving the profile
// itself untouched. It reports whether an entry was removed.
func (s *InMemoryStore) ReleaseOwner(ctx context.Context, userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUser[userID]; !ok {
		return false
	}
	delete(s.byUser, userID)
	return true
}

// Count returns the number of stored profiles
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Name implements health.Checker
func (s *InMemoryStore) Name() string {
	return "profile_store"
}

// IsCritical implements health.Checker
func (s *InMemoryStore) IsCritical() bool {
	return true
}

// HealthCheck verifies that every owner index entry points at a live profile
// owned by that user and that usernames are still unique
func (s *InMemoryStore) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) != len(s.profiles) {
		return fmt.Errorf("order index has %d entries for %d profiles", len(s.order), len(s.profiles))
	}
	for userID, profileID := range s.byUser {
		profile, ok := s.profiles[profileID]
		if !ok {
			return fmt.Errorf("owner index for user %s references missing profile %s", userID, profileID)
		}
		if profile.UserID != userID {
			return fmt.Errorf("owner index for user %s references profile %s owned by %s", userID, profileID, profile.UserID)
		}
	}

	seen := make(map[string]uuid.UUID, len(s.profiles))
	for id, profile := range s.profiles {
		key := strings.ToLower(profile.Username)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("profiles %s and %s share username %q", other, id, profile.Username)
		}
		seen[key] = id
	}
	return nil
}

// usernameTaken must be called with the lock held
func (s *InMemoryStore) usernameTaken(username string, excludeID uuid.UUID) bool {
	for id, profile := range s.profiles {
		if id != excludeID && strings.EqualFold(profile.Username, username) {
			return true
		}
	}
	return false
}
