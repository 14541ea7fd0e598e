package models

import "time"

// Role of a user account. A single role exists today; the column is kept so
// moderator/admin roles can be added without a schema change.
const RoleUser = "user"

type User struct {
	ID              string
	Username        string
	Email           string
	Role            string
	Salt            []byte
	PasswordHash    []byte
	ProfileImageURL string
	CreatedAt       time.Time
}

// HasPassword reports whether the account can log in with a password.
// Accounts created through federated login carry no credential and can only
// sign in through the identity provider.
func (u *User) HasPassword() bool {
	return len(u.Salt) > 0 && len(u.PasswordHash) > 0
}
