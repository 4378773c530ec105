package services

import (
	"context"
	"errors"

	"usersvc/internal/metrics"
	"usersvc/internal/models"
	"usersvc/internal/repositories"

	"github.com/rs/zerolog"
)

// EventPublisher receives lifecycle events after a mutation commits.
type EventPublisher interface {
	PublishUserEvent(event models.UserEvent) error
}

// UserService handles business rules around user records.
type UserService struct {
	repo      repositories.UserRepository
	publisher EventPublisher
	log       zerolog.Logger
}

// NewUserService creates a new UserService. publisher may be nil, in which
// case no lifecycle events are emitted.
func NewUserService(repo repositories.UserRepository, publisher EventPublisher, log zerolog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// ListUsers returns every user in primary key order.
func (s *UserService) ListUsers(ctx context.Context) (users []models.User, err error) {
	defer func() { record("list", err) }()

	return s.repo.GetAll(ctx)
}

// GetUser returns the user with the given id or models.ErrUserNotFound.
func (s *UserService) GetUser(ctx context.Context, id int64) (user models.User, err error) {
	defer func() { record("get", err) }()

	user, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, models.ErrUserNotFound
	}
	return user, nil
}

// CreateUser inserts a new user unless the email is already taken.
func (s *UserService) CreateUser(ctx context.Context, username, email string) (user models.User, err error) {
	defer func() { record("create", err) }()

	_, taken, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, models.ErrEmailExists
	}

	user, err = s.repo.Create(ctx, username, email)
	if err != nil {
		return models.User{}, err
	}

	s.publish(models.NewUserEvent(models.UserCreated, user))
	return user, nil
}

// UpdateUser rewrites username and email of an existing user. The existence
// check runs before the email check. Any record holding the email, the
// target included, is treated as a conflict.
func (s *UserService) UpdateUser(ctx context.Context, id int64, username, email string) (user models.User, err error) {
	defer func() { record("update", err) }()

	user, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, models.ErrUserNotFound
	}

	_, taken, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if taken {
		return models.User{}, models.ErrEmailExists
	}

	user, err = s.repo.Update(ctx, user, username, email)
	if err != nil {
		return models.User{}, err
	}

	s.publish(models.NewUserEvent(models.UserUpdated, user))
	return user, nil
}

// DeleteUser removes an existing user and returns its last snapshot.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (user models.User, err error) {
	defer func() { record("delete", err) }()

	user, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, models.ErrUserNotFound
	}

	user, err = s.repo.Delete(ctx, user)
	if err != nil {
		return models.User{}, err
	}

	s.publish(models.NewUserEvent(models.UserDeleted, user))
	return user, nil
}

func (s *UserService) publish(event models.UserEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishUserEvent(event); err != nil {
		metrics.EventsPublishFailuresTotal.WithLabelValues(event.Type).Inc()
		s.log.Warn().
			Err(err).
			Str("type", event.Type).
			Int64("user_id", event.UserID).
			Msg("failed to publish user event")
		return
	}
	s.log.Debug().
		Str("type", event.Type).
		Int64("user_id", event.UserID).
		Msg("published user event")
}

func record(operation string, err error) {
	metrics.UserOperationsTotal.WithLabelValues(operation, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, models.ErrUserNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, models.ErrEmailExists):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}
