package users

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eion/accounts/internal/accounts"
)

// secretRecord holds a user's credentials.
// The password is kept in plaintext: demo limitation, not a contract.
type secretRecord struct {
	password string
}

// InMemoryStore implements UserStore interface with in-memory storage
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*User
	secrets map[uuid.UUID]secretRecord
	order   []uuid.UUID
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[uuid.UUID]*User),
		secrets: make(map[uuid.UUID]secretRecord),
	}
}

// CreateUser stores user and its password after checking email and phone uniqueness
func (s *InMemoryStore) CreateUser(ctx context.Context, user *User, password string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return nil, fmt.Errorf("user with id %s already exists", user.ID)
	}
	if err := s.checkUnique(user, uuid.Nil); err != nil {
		return nil, err
	}

	stored := *user
	s.users[user.ID] = &stored
	s.secrets[user.ID] = secretRecord{password: password}
	s.order = append(s.order, user.ID)

	out := stored
	return &out, nil
}

// GetUser retrieves a user by ID
func (s *InMemoryStore) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, accounts.NewUserNotFoundError(userID.String())
	}

	out := *user
	return &out, nil
}

// ListUsers returns the users passing req's filters in insertion order
func (s *InMemoryStore) ListUsers(ctx context.Context, req *ListUsersRequest) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*User, 0, len(s.order))
	for _, id := range s.order {
		user := s.users[id]
		if !req.Matches(user) {
			continue
		}
		out := *user
		result = append(result, &out)
	}
	return result, nil
}

// UpdateUser applies the present fields of req. The record is only replaced
// when every constraint holds.
func (s *InMemoryStore) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.users[userID]
	if !exists {
		return nil, accounts.NewUserNotFoundError(userID.String())
	}

	updated := *current
	req.ApplyTo(&updated)

	if err := s.checkUnique(&updated, userID); err != nil {
		return nil, err
	}

	updated.UpdatedAt = nowUTC()
	s.users[userID] = &updated
	if password := req.NewPasswordValue(); password != nil {
		s.secrets[userID] = secretRecord{password: *password}
	}

	out := updated
	return &out, nil
}

// DeleteUser removes a user and its secret record
func (s *InMemoryStore) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[userID]; !exists {
		return accounts.NewUserNotFoundError(userID.String())
	}

	delete(s.users, userID)
	delete(s.secrets, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// UserExists checks if a user exists in storage
func (s *InMemoryStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.users[userID]
	return exists, nil
}

// VerifyPassword compares password with the stored secret in constant time
func (s *InMemoryStore) VerifyPassword(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, exists := s.secrets[userID]
	if !exists {
		return false, accounts.NewUserNotFoundError(userID.String())
	}
	return subtle.ConstantTimeCompare([]byte(secret.password), []byte(password)) == 1, nil
}

// Count returns the number of live users
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Name implements health.Checker
func (s *InMemoryStore) Name() string {
	return "user_store"
}

// IsCritical implements health.Checker
func (s *InMemoryStore) IsCritical() bool {
	return true
}

// HealthCheck verifies that every user has a secret record and that the
// insertion order index matches the record map
func (s *InMemoryStore) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) != len(s.users) {
		return fmt.Errorf("order index has %d entries for %d users", len(s.order), len(s.users))
	}
	if len(s.secrets) != len(s.users) {
		return fmt.Errorf("%d secret records for %d users", len(s.secrets), len(s.users))
	}
	for _, id := range s.order {
		if _, ok := s.users[id]; !ok {
			return fmt.Errorf("order index references missing user %s", id)
		}
		if _, ok := s.secrets[id]; !ok {
			return fmt.Errorf("user %s has no secret record", id)
		}
	}
	return nil
}

// checkUnique must be called with the lock held. excludeID skips the record
// being updated.
func (s *InMemoryStore) checkUnique(candidate *User, excludeID uuid.UUID) error {
	for id, existing := range s.users {
		if id == excludeID {
			continue
		}
		if strings.EqualFold(existing.Email, candidate.Email) {
			return accounts.NewEmailExistsError(candidate.Email)
		}
	}
	for id, existing := range s.users {
		if id == excludeID {
			continue
		}
		if existing.Phone == candidate.Phone {
			return accounts.NewPhoneExistsError(candidate.Phone)
		}
	}
	return nil
}
