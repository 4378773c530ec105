package repositories

import (
	"context"
	"errors"
	"fmt"

	"usersvc/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
// The handle must be opened with TranslateError so unique violations are
// reported as gorm.ErrDuplicatedKey.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// GetAll retrieves every user ordered by primary key.
func (r *GORMUserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id int64) (models.User, bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return user, true, nil
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (models.User, bool, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return user, true, nil
}

// Create inserts a new user. The store assigns id and created_date.
func (r *GORMUserRepository) Create(ctx context.Context, username, email string) (models.User, error) {
	user := models.User{Username: username, Email: email}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, models.ErrEmailExists
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update overwrites username and email. id and created_date are never written.
func (r *GORMUserRepository) Update(ctx context.Context, user models.User, username, email string) (models.User, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"username": username, "email": email})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return models.User{}, models.ErrEmailExists
		}
		return models.User{}, fmt.Errorf("failed to update user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, fmt.Errorf("user with ID %d not found for update: %w", user.ID, models.ErrUserNotFound)
	}

	user.Username = username
	user.Email = email
	return user, nil
}

// Delete removes the user row and returns the snapshot it was given.
func (r *GORMUserRepository) Delete(ctx context.Context, user models.User) (models.User, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", user.ID)
	if res.Error != nil {
		return models.User{}, fmt.Errorf("failed to delete user %d: %w", user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, fmt.Errorf("user with ID %d not found for deletion: %w", user.ID, models.ErrUserNotFound)
	}
	return user, nil
}
