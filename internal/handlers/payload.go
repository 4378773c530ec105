package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"usersvc/internal/models"

	"github.com/go-playground/validator/v10"
)

const validationFailedMessage = "Input payload validation failed"

// userPayload is the body accepted by create and update. Fields are pointers
// so that presence is checked, not emptiness.
type userPayload struct {
	Username *string `json:"username" validate:"required"`
	Email    *string `json:"email" validate:"required"`
}

// FieldError describes one invalid field of a request payload.
type FieldError struct {
	Field   string
	Message string
}

// userResponse is the wire representation of a user. id and created_date are
// read-only; they are never taken from a request.
type userResponse struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	CreatedDate time.Time `json:"created_date"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Errors  map[string]string `json:"errors,omitempty"`
	Message string            `json:"message"`
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateUserPayload checks p against the user schema and returns one entry
// per invalid field, in declaration order. A nil result means p is valid.
func ValidateUserPayload(v *validator.Validate, p userPayload) []FieldError {
	err := v.Struct(p)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		fieldErrors = append(fieldErrors, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return fieldErrors
}

// decodeErrors turns a body parsing failure into field errors where the
// failure can be attributed to a field.
func decodeErrors(err error) []FieldError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []FieldError{{Field: typeErr.Field, Message: fmt.Sprintf("'%s' must be a string", typeErr.Field)}}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is a required property", fe.Field())
	default:
		return fmt.Sprintf("'%s' failed validation (%s)", fe.Field(), fe.Tag())
	}
}

func newValidationErrorResponse(fieldErrors []FieldError) validationErrorResponse {
	resp := validationErrorResponse{Message: validationFailedMessage}
	for _, fe := range fieldErrors {
		if fe.Field == "" {
			continue
		}
		if resp.Errors == nil {
			resp.Errors = make(map[string]string, len(fieldErrors))
		}
		resp.Errors[fe.Field] = fe.Message
	}
	return resp
}

// toUserResponse maps a user record to its wire representation.
func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		CreatedDate: u.CreatedDate.UTC(),
	}
}

func toUserListResponse(users []models.User) []userResponse {
	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}
