package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the single authority level an operator holds
type Role string

const (
	RoleOperator      Role = "OPERATOR"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleAdministrator
}

// Operator is an account that can sign in to the platform
type Operator struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Operator model
func (Operator) TableName() string {
	return "operators"
}

// NewOperator creates a new Operator. An empty role defaults to RoleOperator.
func NewOperator(username, passwordHash string, role Role) *Operator {
	if role == "" {
		role = RoleOperator
	}
	now := time.Now().UTC()
	return &Operator{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsAdmin returns true if the operator has the administrator role
func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdministrator
}
