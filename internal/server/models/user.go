package models

import "time"

// User is a credential record. PasswordHash and TokenVersion never leave
// the server; use Public for anything sent to a client.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	TokenVersion int64
	CreatedAt    time.Time
}

// PublicUser is the client-safe view of a User.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	IsAdmin   bool      `json:"isAdmin"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		IsAdmin:   u.IsAdmin,
	}
}
