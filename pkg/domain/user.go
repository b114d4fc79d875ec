package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity consumed from the auth collaborator. The global
// role and per-organization membership role are independent axes.
type User struct {
	ID                 uuid.UUID
	Email              string
	Name               string
	GlobalRole         GlobalRole
	EmailNotifications bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// DisplayName returns the user's name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
