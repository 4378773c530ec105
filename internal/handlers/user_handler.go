package handlers

import (
	"errors"
	"fmt"

	"usersvc/internal/models"
	"usersvc/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const emailExistsMessage = "Sorry. That email already exists."

// UserHandler handles HTTP requests for user records.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: NewValidator(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:id<int>", h.HandleGetUser)
	userRoutes.Put("/:id<int>", h.HandleUpdateUser)
	userRoutes.Delete("/:id<int>", h.HandleDeleteUser)
}

// HandleListUsers returns every user.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return c.JSON(toUserListResponse(users))
}

// HandleGetUser returns a single user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUser(c.UserContext(), id)
	if err != nil {
		return h.serviceError(err, id)
	}
	return c.JSON(toUserResponse(user))
}

// HandleCreateUser adds a new user.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	payload, ok, err := h.parsePayload(c)
	if !ok {
		return err
	}

	if _, err := h.service.CreateUser(c.UserContext(), *payload.Username, *payload.Email); err != nil {
		return h.serviceError(err, 0)
	}

	return c.Status(fiber.StatusCreated).JSON(messageResponse{
		Message: fmt.Sprintf("%s was added!", *payload.Email),
	})
}

// HandleUpdateUser rewrites a user's username and email.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	payload, ok, err := h.parsePayload(c)
	if !ok {
		return err
	}

	user, err := h.service.UpdateUser(c.UserContext(), id, *payload.Username, *payload.Email)
	if err != nil {
		return h.serviceError(err, id)
	}

	return c.JSON(messageResponse{
		Message: fmt.Sprintf("%d was updated!", user.ID),
	})
}

// HandleDeleteUser removes a user.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.service.DeleteUser(c.UserContext(), id)
	if err != nil {
		return h.serviceError(err, id)
	}

	return c.JSON(messageResponse{
		Message: fmt.Sprintf("%s was removed!", user.Email),
	})
}

// parsePayload decodes and validates the request body. When ok is false the
// validation response has already been written and err is what the handler
// must return.
func (h *UserHandler) parsePayload(c *fiber.Ctx) (payload userPayload, ok bool, err error) {
	if err := c.BodyParser(&payload); err != nil {
		resp := newValidationErrorResponse(decodeErrors(err))
		return payload, false, c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	if fieldErrors := ValidateUserPayload(h.validate, payload); fieldErrors != nil {
		resp := newValidationErrorResponse(fieldErrors)
		return payload, false, c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return payload, true, nil
}

func (h *UserHandler) serviceError(err error, id int64) error {
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("User %d does not exist", id))
	case errors.Is(err, models.ErrEmailExists):
		return fiber.NewError(fiber.StatusBadRequest, emailExistsMessage)
	default:
		return err
	}
}

// userID reads the :id route parameter. The :id<int> constraint rejects
// anything that does not parse before the handler runs.
func userID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, fiber.ErrNotFound
	}
	return int64(id), nil
}
