package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/simplelms/api/database"
	jwtauth "github.com/simplelms/api/utils/auth"
	"github.com/simplelms/api/utils/middleware"
)

func setupAuthApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))

	jwtManager := jwtauth.NewJWTManager(jwtauth.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})
	handler := NewAuthHandler(db, jwtManager, nil)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	app.Post("/api/v1/auth/register", handler.Register)
	app.Post("/api/v1/auth/login", handler.Login)
	app.Post("/api/v1/auth/refresh", handler.RefreshToken)
	app.Get("/api/v1/user/profile", authMiddleware.Required(), handler.GetProfile)

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func registerPayload(username string) map[string]any {
	return map[string]any{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "password123",
		"first_name": "Test",
		"last_name":  "User",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", registerPayload("alice"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	// The password never appears in any projection.
	_, leaked := data["password_hash"]
	assert.False(t, leaked)

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]any{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body = decodeBody(t, resp)
	data = body["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.EqualValues(t, 86400, data["expires_in"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", registerPayload("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := registerPayload("alice")
	payload["email"] = "other@example.com"
	resp = postJSON(t, app, "/api/v1/auth/register", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp)
	errDetail := body["error"].(map[string]any)
	assert.Equal(t, "CONFLICT", errDetail["code"])
	assert.Equal(t, "Username already exists", errDetail["message"])
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	app, _ := setupAuthApp(t)

	payload := registerPayload("has spaces")
	resp := postJSON(t, app, "/api/v1/auth/register", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", registerPayload("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	app, _ := setupAuthApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileWithValidToken(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", registerPayload("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]any{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["data"].(map[string]any)["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
}

func TestRefreshToken(t *testing.T) {
	app, _ := setupAuthApp(t)

	resp := postJSON(t, app, "/api/v1/auth/register", registerPayload("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/auth/login", map[string]any{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refresh := decodeBody(t, resp)["data"].(map[string]any)["refresh_token"].(string)

	resp = postJSON(t, app, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": refresh,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["data"].(map[string]any)["access_token"])
}
