package auth

import (
	"context"

	"github.com/google/uuid"
)

// Store persists users.
//
// Implementations return ErrUserNotFound for missing records and
// ErrEmailTaken whenever a write would give two users the same email.
// UpdateUser must load, mutate and save the record atomically with respect
// to other UpdateUser calls; if fn returns an error nothing is saved.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fn func(*User) error) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
