package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eion/accounts/internal/accounts"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// MembershipTier is the subscription level of a user
type MembershipTier string

const (
	TierFree   MembershipTier = "FREE"
	TierPro    MembershipTier = "PRO"
	TierProMax MembershipTier = "PROMAX"
)

// IsValid checks if the membership tier is valid
func (t MembershipTier) IsValid() bool {
	return accounts.IsMembershipTier(string(t))
}

// User is the public record of a user. The password lives in the store's
// secret records and is never part of this struct.
type User struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	MembershipTier MembershipTier `json:"membership_tier"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	Name           string                            `json:"name" validate:"required"`
	Email          string                            `json:"email" validate:"required,email"`
	Phone          string                            `json:"phone" validate:"required,usphone"`
	MembershipTier accounts.Optional[MembershipTier] `json:"membership_tier"`
	Password       string                            `json:"password" validate:"required"`
}

// Normalize strips phone whitespace and applies the default tier when the
// key is absent. An explicit null is left for Validate to reject.
func (r *CreateUserRequest) Normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
	if !r.MembershipTier.Set {
		r.MembershipTier = accounts.Some(TierFree)
	}
}

// Validate validates the create user request
func (r *CreateUserRequest) Validate() error {
	if err := accounts.ValidateStruct(r); err != nil {
		return err
	}
	if r.MembershipTier.Null {
		return accounts.NewValidationError("membership_tier", nil, "membership_tier cannot be null")
	}
	return accounts.ValidateField("membership_tier", string(r.MembershipTier.Value), "required,membership_tier")
}

// ToUser converts the request to a User with a fresh id
func (r *CreateUserRequest) ToUser() *User {
	now := nowUTC()
	return &User{
		ID:             uuid.New(),
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		MembershipTier: r.MembershipTier.Value,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// UpdateUserRequest is a sparse patch: only keys present in the body are applied
type UpdateUserRequest struct {
	Name           accounts.Optional[string]         `json:"name"`
	Email          accounts.Optional[string]         `json:"email"`
	Phone          accounts.Optional[string]         `json:"phone"`
	MembershipTier accounts.Optional[MembershipTier] `json:"membership_tier"`
	NewPassword    accounts.Optional[string]         `json:"new_password"`
}

// Normalize strips phone whitespace
func (r *UpdateUserRequest) Normalize() {
	if r.Phone.HasValue() {
		r.Phone.Value = strings.TrimSpace(r.Phone.Value)
	}
}

// Validate validates every field present in the patch. All user fields are
// required, so an explicit null is rejected.
func (r *UpdateUserRequest) Validate() error {
	checks := []struct {
		field string
		set   bool
		null  bool
		value interface{}
		tag   string
	}{
		{"name", r.Name.Set, r.Name.Null, r.Name.Value, "required"},
		{"email", r.Email.Set, r.Email.Null, r.Email.Value, "required,email"},
		{"phone", r.Phone.Set, r.Phone.Null, r.Phone.Value, "required,usphone"},
		{"membership_tier", r.MembershipTier.Set, r.MembershipTier.Null, string(r.MembershipTier.Value), "required,membership_tier"},
		{"new_password", r.NewPassword.Set, r.NewPassword.Null, r.NewPassword.Value, "required"},
	}

	for _, check := range checks {
		if !check.set {
			continue
		}
		if check.null {
			return accounts.NewValidationError(check.field, nil, check.field+" cannot be null")
		}
		if err := accounts.ValidateField(check.field, check.value, check.tag); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo copies the present fields onto user
func (r *UpdateUserRequest) ApplyTo(user *User) {
	if r.Name.HasValue() {
		user.Name = r.Name.Value
	}
	if r.Email.HasValue() {
		user.Email = r.Email.Value
	}
	if r.Phone.HasValue() {
		user.Phone = r.Phone.Value
	}
	if r.MembershipTier.HasValue() {
		user.MembershipTier = r.MembershipTier.Value
	}
}

// NewPasswordValue returns the replacement password, if any
func (r *UpdateUserRequest) NewPasswordValue() *string {
	if !r.NewPassword.HasValue() {
		return nil
	}
	return &r.NewPassword.Value
}

// ListUsersRequest holds the optional exact-match filters for listing users
type ListUsersRequest struct {
	Name           *string
	Email          *string
	Phone          *string
	MembershipTier *MembershipTier
}

// Matches reports whether user passes every present filter
func (r *ListUsersRequest) Matches(user *User) bool {
	if r == nil {
		return true
	}
	if r.Name != nil && user.Name != *r.Name {
		return false
	}
	if r.Email != nil && !strings.EqualFold(user.Email, *r.Email) {
		return false
	}
	if r.Phone != nil && user.Phone != *r.Phone {
		return false
	}
	if r.MembershipTier != nil && user.MembershipTier != *r.MembershipTier {
		return false
	}
	return true
}
