package repositories

import (
	"context"

	"usersvc/internal/models"
)

// UserRepository defines the interface for user data access. Each method is
// a single store interaction; mutations commit immediately.
//
// Lookups report absence through the boolean result rather than an error, so
// callers must handle the not-found branch explicitly.
type UserRepository interface {
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (models.User, bool, error)
	Create(ctx context.Context, username, email string) (models.User, error)
	Update(ctx context.Context, user models.User, username, email string) (models.User, error)
	Delete(ctx context.Context, user models.User) (models.User, error)
}
