package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

// User is an account holder. Its ID (as a string) is the ledger user_id.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
