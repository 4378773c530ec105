package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"usersvc/internal/models"
)

// MemoryUserRepository is an in-memory implementation of UserRepository.
// It enforces the same unique email rule as the relational schema.
type MemoryUserRepository struct {
	users  map[int64]models.User
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryUserRepository creates a new instance of MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:  make(map[int64]models.User),
		nextID: 1,
	}
}

// GetAll returns all users ordered by ID.
func (r *MemoryUserRepository) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		userList = append(userList, user)
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].ID < userList[j].ID })
	return userList, nil
}

// GetByID returns a user by their ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	return user, ok, nil
}

// GetByEmail returns a user by their email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, ok := r.findByEmail(email); ok {
		return user, true, nil
	}
	return models.User{}, false, nil
}

// Create adds a new user.
func (r *MemoryUserRepository) Create(_ context.Context, username, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.findByEmail(email); taken {
		return models.User{}, models.ErrEmailExists
	}

	user := models.User{
		ID:          r.nextID,
		Username:    username,
		Email:       email,
		CreatedDate: time.Now().UTC(),
	}
	r.nextID++
	r.users[user.ID] = user
	return user, nil
}

// Update modifies username and email of an existing user.
func (r *MemoryUserRepository) Update(_ context.Context, user models.User, username, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return models.User{}, fmt.Errorf("user with ID %d not found for update: %w", user.ID, models.ErrUserNotFound)
	}
	if other, taken := r.findByEmail(email); taken && other.ID != user.ID {
		return models.User{}, models.ErrEmailExists
	}

	stored.Username = username
	stored.Email = email
	r.users[stored.ID] = stored
	return stored, nil
}

// Delete removes a user and returns the removed snapshot.
func (r *MemoryUserRepository) Delete(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return models.User{}, fmt.Errorf("user with ID %d not found for deletion: %w", user.ID, models.ErrUserNotFound)
	}
	delete(r.users, user.ID)
	return stored, nil
}

// findByEmail must be called with r.mu held.
func (r *MemoryUserRepository) findByEmail(email string) (models.User, bool) {
	for _, user := range r.users {
		if user.Email == email {
			return user, true
		}
	}
	return models.User{}, false
}
