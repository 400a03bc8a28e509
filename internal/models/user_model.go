package models

import "time"

// User is a person signed in through Google. Connected social accounts and
// API keys hang off the user id.
type User struct {
	ID             int64     `db:"id" json:"id"`
	GoogleID       string    `db:"google_id" json:"-"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	ProfilePicture string    `db:"profile_picture" json:"profile_picture"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// NeedsGoogleLink reports whether the row predates Google sign-in.
func (u *User) NeedsGoogleLink() bool {
	return u.GoogleID == ""
}
