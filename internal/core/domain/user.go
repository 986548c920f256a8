package domain

import "time"

// User models a registered account. PasswordHash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// Projection returns a copy of the user without credentials, safe to hand to callers.
func (u *User) Projection() *User {
	if u == nil {
		return nil
	}
	return &User{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
