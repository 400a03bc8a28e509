package models

import "time"

// ApiKey authenticates requests that pass it in the api_key query parameter.
// Only the hash is stored; Key is filled once, on the value returned at
// creation.
type ApiKey struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Key        string     `db:"-" json:"api_key,omitempty"`
	KeyHash    string     `db:"key_hash" json:"-"`
	Prefix     string     `db:"key_prefix" json:"prefix"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
