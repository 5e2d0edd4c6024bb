package domain

import (
	"context"
	"strings"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusBanned   UserStatus = "banned"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusBanned:
		return true
	}
	return false
}

// User represents a user in the system.
type User struct {
	BaseDocument `bson:",inline"`
	Email        string     `bson:"email" gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password     string     `bson:"password" gorm:"size:255" json:"-"`
	FirstName    string     `bson:"first_name" gorm:"size:100;not null" json:"first_name"`
	LastName     string     `bson:"last_name" gorm:"size:100;not null" json:"last_name"`
	Status       UserStatus `bson:"status" gorm:"size:20;not null;default:active" json:"status"`
}

// FullName joins the first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// UserRepository is the data access interface for users.
type UserRepository = Repository[User]

// UserFilter holds the optional equality filters accepted by user listings.
type UserFilter struct {
	Email  string
	Status UserStatus
}

// Conditions converts the non-empty filter fields to repository conditions.
func (f UserFilter) Conditions() Conditions {
	conds := Conditions{}
	if f.Email != "" {
		conds["email"] = f.Email
	}
	if f.Status != "" {
		conds["status"] = string(f.Status)
	}
	return conds
}

// CreateUserInput holds the fields required to register a user.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserInput holds a partial user update; nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Status    *UserStatus
}

// UserService defines the business logic interface for users.
type UserService interface {
	ListUsers(ctx context.Context, filter UserFilter, q QueryOptions) (*PageResult[User], error)
	ExportUsers(ctx context.Context, filter UserFilter, q QueryOptions) ([]User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	UpdateUser(ctx context.Context, email string, in UpdateUserInput) (*User, error)
	DeleteUser(ctx context.Context, email string, permanent bool) error
}
