package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"usersvc/internal/handlers"
	"usersvc/internal/models"
	"usersvc/internal/repositories"
	"usersvc/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenRepository fails every listing to exercise the 500 path.
type brokenRepository struct {
	*repositories.MemoryUserRepository
}

func (brokenRepository) GetAll(context.Context) ([]models.User, error) {
	return nil, errors.New("connection reset")
}

func newUserApp(repo repositories.UserRepository) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.NewErrorHandler(zerolog.Nop())})
	service := services.NewUserService(repo, nil, zerolog.Nop())
	handlers.NewUserHandler(service).RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var data map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		_ = json.NewDecoder(resp.Body).Decode(&data)
	}
	return resp, data
}

func seedUser(t *testing.T, repo repositories.UserRepository, username, email string) models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), username, email)
	require.NoError(t, err)
	return user
}

func storedUsers(t *testing.T, repo repositories.UserRepository) []models.User {
	t.Helper()
	users, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	return users
}

func TestHandleCreateUser(t *testing.T) {
	app := newUserApp(repositories.NewMemoryUserRepository())

	resp, data := doJSON(t, app, http.MethodPost, "/users", `{"username":"michael","email":"michael@testdriven.io"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "michael@testdriven.io was added!", data["message"])
}

func TestHandleCreateUser_InvalidPayload(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantErrors map[string]interface{}
	}{
		{name: "empty object", body: `{}`, wantErrors: map[string]interface{}{
			"username": "'username' is a required property",
			"email":    "'email' is a required property",
		}},
		{name: "missing username", body: `{"email":"john@testdriven.io"}`, wantErrors: map[string]interface{}{
			"username": "'username' is a required property",
		}},
		{name: "missing email", body: `{"username":"john"}`, wantErrors: map[string]interface{}{
			"email": "'email' is a required property",
		}},
		{name: "wrong type", body: `{"username":1,"email":"john@testdriven.io"}`, wantErrors: map[string]interface{}{
			"username": "'username' must be a string",
		}},
		{name: "malformed", body: `{"username":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repositories.NewMemoryUserRepository()
			seedUser(t, repo, "michael", "michael@testdriven.io")
			before := storedUsers(t, repo)
			app := newUserApp(repo)

			resp, data := doJSON(t, app, http.MethodPost, "/users", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "Input payload validation failed", data["message"])
			if tt.wantErrors != nil {
				assert.Equal(t, tt.wantErrors, data["errors"])
			} else {
				assert.NotContains(t, data, "errors")
			}
			assert.Equal(t, before, storedUsers(t, repo))
		})
	}
}

func TestHandleCreateUser_DuplicateEmail(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	seedUser(t, repo, "michael", "michael@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodPost, "/users", `{"username":"michael","email":"michael@testdriven.io"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Sorry. That email already exists.", data["message"])
	assert.Len(t, storedUsers(t, repo), 1)
}

func TestHandleGetUser(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "jeffrey", "jeffrey@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, user.ID, data["id"])
	assert.Equal(t, "jeffrey", data["username"])
	assert.Equal(t, "jeffrey@testdriven.io", data["email"])
	assert.NotEmpty(t, data["created_date"])
}

func TestHandleGetUser_IncorrectID(t *testing.T) {
	app := newUserApp(repositories.NewMemoryUserRepository())

	resp, data := doJSON(t, app, http.MethodGet, "/users/1000", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User 1000 does not exist", data["message"])
}

func TestHandleGetUser_NonNumericID(t *testing.T) {
	app := newUserApp(repositories.NewMemoryUserRepository())

	resp, _ := doJSON(t, app, http.MethodGet, "/users/abc", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleGetUser_IDBeyondIntRange(t *testing.T) {
	app := newUserApp(repositories.NewMemoryUserRepository())

	resp, data := doJSON(t, app, http.MethodGet, "/users/99999999999999999999999", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Cannot GET /users/99999999999999999999999", data["message"])
}

func TestHandleListUsers(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	seedUser(t, repo, "michael", "michael@mherman.org")
	seedUser(t, repo, "fletcher", "fletcher@notreal.com")
	app := newUserApp(repo)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 2)
	assert.Equal(t, "michael", users[0]["username"])
	assert.Equal(t, "fletcher@notreal.com", users[1]["email"])
}

func TestHandleListUsers_Empty(t *testing.T) {
	app := newUserApp(repositories.NewMemoryUserRepository())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, buf.String())
}

func TestHandleListUsers_StoreFailure(t *testing.T) {
	app := newUserApp(brokenRepository{repositories.NewMemoryUserRepository()})

	resp, data := doJSON(t, app, http.MethodGet, "/users", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", data["message"])
}

func TestHandleDeleteUser(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "user-to-be-removed", "remove-me@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "remove-me@testdriven.io was removed!", data["message"])

	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleDeleteUser_IncorrectID(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "michael", "michael@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodDelete, "/users/999", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User 999 does not exist", data["message"])
	assert.Equal(t, []models.User{user}, storedUsers(t, repo))
}

func TestHandleUpdateUser(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "user-to-be-updated", "update-me@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodPut, fmt.Sprintf("/users/%d", user.ID), `{"username":"me","email":"me@testdriven.io"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("%d was updated!", user.ID), data["message"])

	resp, data = doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "me", data["username"])
	assert.Equal(t, "me@testdriven.io", data["email"])
}

func TestHandleUpdateUser_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		id         int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"empty payload", 1, `{}`, http.StatusBadRequest, "Input payload validation failed"},
		{"missing username", 1, `{"email":"me@testdriven.io"}`, http.StatusBadRequest, "Input payload validation failed"},
		{"missing email", 1, `{"username":"me"}`, http.StatusBadRequest, "Input payload validation failed"},
		{"unknown user", 999, `{"username":"me","email":"me@testdriven.io"}`, http.StatusNotFound, "User 999 does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repositories.NewMemoryUserRepository()
			user := seedUser(t, repo, "user-to-be-updated", "update-me@testdriven.io")
			app := newUserApp(repo)

			resp, data := doJSON(t, app, http.MethodPut, fmt.Sprintf("/users/%d", tt.id), tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, data["message"])

			users := storedUsers(t, repo)
			require.Len(t, users, 1)
			assert.Equal(t, user, users[0])
			assert.Equal(t, "user-to-be-updated", users[0].Username)
			assert.Equal(t, "update-me@testdriven.io", users[0].Email)
		})
	}
}

func TestHandleUpdateUser_DuplicateEmail(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "me", "me@testdriven.io")
	seedUser(t, repo, "you", "you@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodPut, fmt.Sprintf("/users/%d", user.ID), `{"username":"me","email":"you@testdriven.io"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Sorry. That email already exists.", data["message"])
}

func TestHandleUpdateUser_OwnEmailIsConflict(t *testing.T) {
	repo := repositories.NewMemoryUserRepository()
	user := seedUser(t, repo, "me", "me@testdriven.io")
	app := newUserApp(repo)

	resp, data := doJSON(t, app, http.MethodPut, fmt.Sprintf("/users/%d", user.ID), `{"username":"renamed","email":"me@testdriven.io"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Sorry. That email already exists.", data["message"])
}
