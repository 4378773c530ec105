package models

import "time"

// Lifecycle event types published after a committed mutation.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

// UserEvent describes a committed change to a user record.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent builds an event of the given type from the user snapshot.
func NewUserEvent(eventType string, user User) UserEvent {
	return UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
}
