package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// LocalUserID is the reserved identity of the person using this client.
// Every other id in the directory is a remote participant.
const LocalUserID = "current"

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// User represents a participant of a conversation, local or remote.
type User struct {
	ID            string `json:"id" yaml:"id" validate:"required,max=64"`
	DisplayName   string `json:"name" yaml:"name" validate:"required,min=1,max=80"`
	AvatarRef     string `json:"avatar" yaml:"avatar" validate:"omitempty,url"`
	StatusText    string `json:"status" yaml:"status" validate:"max=140"`
	Online        bool   `json:"online" yaml:"online"`
	LastSeenLabel string `json:"lastSeen" yaml:"lastSeen" validate:"max=64"`
}

// IsLocal reports whether u is the local user record.
func (u User) IsLocal() bool {
	return u.ID == LocalUserID
}

// Validate checks the struct tags of the user record.
func (u User) Validate() error {
	if err := validatorInstance.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return nil
}

// ValidateLocalProfile checks that u is a well-formed replacement for the
// local user's record.
func (u User) ValidateLocalProfile() error {
	if !u.IsLocal() {
		return fmt.Errorf("%w: profile id must be %q, got %q", ErrInvalidProfile, LocalUserID, u.ID)
	}
	return u.Validate()
}
