package repository

import (
	"context"

	"photovault/internal/model"
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user record.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByID returns a user by id.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername returns a user by exact username.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail returns a user by exact email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
