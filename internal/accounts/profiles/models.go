package profiles

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eion/accounts/internal/accounts"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// Profile is the public profile owned by exactly one user
type Profile struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Bio         *string   `json:"bio"`
	StyleTags   []string  `json:"style_tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// clone returns a deep copy so callers never share the stored slices
func (p *Profile) clone() *Profile {
	out := *p
	out.StyleTags = append(make([]string, 0, len(p.StyleTags)), p.StyleTags...)
	return &out
}

// CreateProfileRequest represents the request to create a profile
type CreateProfileRequest struct {
	UserID      string   `json:"user_id" validate:"required"`
	Username    string   `json:"username" validate:"required,username"`
	DisplayName *string  `json:"display_name"`
	AvatarURL   *string  `json:"avatar_url" validate:"omitnil,http_url"`
	Bio         *string  `json:"bio" validate:"omitnil,max=280"`
	StyleTags   []string `json:"style_tags"`
}

// Validate validates the create profile request. user_id accepts every form
// uuid.Parse does, the same as the path and query parameters.
func (r *CreateProfileRequest) Validate() error {
	if err := accounts.ValidateStruct(r); err != nil {
		return err
	}
	if _, err := uuid.Parse(r.UserID); err != nil {
		return accounts.NewValidationErrorWithCause("user_id", r.UserID, "user_id must be a valid UUID", err)
	}
	return nil
}

// ToProfile converts the request to a Profile with a fresh id. The request
// must have been validated.
func (r *CreateProfileRequest) ToProfile() (*Profile, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, accounts.NewValidationErrorWithCause("user_id", r.UserID, "user_id must be a valid UUID", err)
	}

	now := nowUTC()
	return &Profile{
		ID:          uuid.New(),
		UserID:      userID,
		Username:    r.Username,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		Bio:         r.Bio,
		StyleTags:   append(make([]string, 0, len(r.StyleTags)), r.StyleTags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateProfileRequest is a sparse patch. UserID is only decoded so that an
// attempt to change the owner can be rejected.
type UpdateProfileRequest struct {
	UserID      accounts.Optional[json.RawMessage] `json:"user_id"`
	Username    accounts.Optional[string]          `json:"username"`
	DisplayName accounts.Optional[string]          `json:"display_name"`
	AvatarURL   accounts.Optional[string]          `json:"avatar_url"`
	Bio         accounts.Optional[string]          `json:"bio"`
	StyleTags   accounts.Optional[[]string]        `json:"style_tags"`
}

// Validate validates every field present in the patch
func (r *UpdateProfileRequest) Validate() error {
	if r.UserID.Set {
		return accounts.NewImmutableFieldError("user_id")
	}

	if r.Username.Set {
		if r.Username.Null {
			return accounts.NewValidationError("username", nil, "username cannot be null")
		}
		if err := accounts.ValidateField("username", r.Username.Value, "required,username"); err != nil {
			return err
		}
	}
	if r.AvatarURL.HasValue() {
		if err := accounts.ValidateField("avatar_url", r.AvatarURL.Value, "http_url"); err != nil {
			return err
		}
	}
	if r.Bio.HasValue() {
		if err := accounts.ValidateField("bio", r.Bio.Value, "max=280"); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo copies the present fields onto profile. Null clears nullable
// fields; a null style_tags empties the list.
func (r *UpdateProfileRequest) ApplyTo(profile *Profile) {
	if r.Username.HasValue() {
		profile.Username = r.Username.Value
	}
	if r.DisplayName.Set {
		profile.DisplayName = r.DisplayName.Ptr()
	}
	if r.AvatarURL.Set {
		profile.AvatarURL = r.AvatarURL.Ptr()
	}
	if r.Bio.Set {
		profile.Bio = r.Bio.Ptr()
	}
	if r.StyleTags.Set {
		profile.StyleTags = append(make([]string, 0, len(r.StyleTags.Value)), r.StyleTags.Value...)
	}
}

// ListProfilesRequest holds the optional exact-match filters for listing profiles
type ListProfilesRequest struct {
	UserID   *uuid.UUID
	Username *string
}

// Matches reports whether profile passes every present filter
func (r *ListProfilesRequest) Matches(profile *Profile) bool {
	if r == nil {
		return true
	}
	if r.UserID != nil && profile.UserID != *r.UserID {
		return false
	}
	if r.Username != nil && !strings.EqualFold(profile.Username, *r.Username) {
		return false
	}
	return true
}
