package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useradmin/useradmin/internal/models"
)

func TestLogin_SetsRefreshCookie(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "test_user", "password123", models.RoleUser)

	rec := app.do(t, request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   `{"username":"test_user","password":"password123"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.NotEmpty(t, data["expiredAt"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "test_user", user["username"])
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	cookie := findCookie(rec.Result().Cookies(), refreshCookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestLogin_InvalidInput(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   `{"username":"ab","password":"short"}`,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid Input", body["message"])
	validations := body["validations"].(map[string]any)
	assert.Contains(t, validations, "username")
	assert.Contains(t, validations, "password")
}

func TestLogin_WrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "test_user", "password123", models.RoleUser)

	rec := app.do(t, request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   `{"username":"test_user","password":"wrong-password"}`,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, findCookie(rec.Result().Cookies(), refreshCookieName))
}

func TestRefresh_WithoutCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, request{Method: http.MethodPost, Path: "/api/auth/refresh"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refresh token not found in cookie", decodeBody(t, rec)["message"])
}

func TestRefresh_RotatesCookie(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "test_user", "password123", models.RoleUser)
	_, cookie := app.login(t, "test_user", "password123")

	rec := app.do(t, request{
		Method:  http.MethodPost,
		Path:    "/api/auth/refresh",
		Cookies: []*http.Cookie{cookie},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.NotEmpty(t, data["accessToken"])
	assert.NotEmpty(t, data["expiredAt"])

	rotated := findCookie(rec.Result().Cookies(), refreshCookieName)
	require.NotNil(t, rotated)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// Replaying the pre-rotation cookie fails, the rotated one works.
	rec = app.do(t, request{
		Method:  http.MethodPost,
		Path:    "/api/auth/refresh",
		Cookies: []*http.Cookie{cookie},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, request{
		Method:  http.MethodPost,
		Path:    "/api/auth/refresh",
		Cookies: []*http.Cookie{rotated},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "test_user", "password123", models.RoleUser)
	_, cookie := app.login(t, "test_user", "password123")

	rec := app.do(t, request{
		Method:  http.MethodPost,
		Path:    "/api/auth/logout",
		Cookies: []*http.Cookie{cookie},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decodeBody(t, rec)["message"])

	cleared := findCookie(rec.Result().Cookies(), refreshCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The revoked session cannot refresh anymore.
	rec = app.do(t, request{
		Method:  http.MethodPost,
		Path:    "/api/auth/refresh",
		Cookies: []*http.Cookie{cookie},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
