package models

import (
	"time"
)

// DefaultDisplayName is used when an identity carries no display name.
const DefaultDisplayName = "Utilisateur"

// UserProfile is created lazily the first time an authenticated identity
// is seen. DisplayName is the only mutable field and may only be edited
// by its own user.
type UserProfile struct {
	UID         string    `json:"uid"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}
