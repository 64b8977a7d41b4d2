package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // never serialize
	CreatedAt time.Time `json:"created_at"`
}

// Credentials is the JSON body for register and login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
