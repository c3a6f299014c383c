package repository

import (
	"context"

	"openlabel/internal/model"
)

// UserRepository defines data access for user accounts. The platform only
// needs enough of a user surface to satisfy creator-existence checks on
// uploads and annotations.
type UserRepository interface {
	// Create inserts a new user record and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Exists reports whether a user with the given ID exists.
	Exists(ctx context.Context, id string) (bool, error)
}
