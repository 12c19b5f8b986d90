package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/cache"
	"github.com/useradmin/useradmin/internal/hash"
	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/repo"
	"github.com/useradmin/useradmin/internal/service"
	"github.com/useradmin/useradmin/internal/session"
)

// testApp wires the full router over sqlite and miniredis so handler tests
// run requests through the real middleware chain.
type testApp struct {
	Echo *echo.Echo
	DB   *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	userRepo := &repo.UserRepo{DB: db}
	auditRepo := &repo.AuditRepo{DB: db}

	tokenSvc := &service.TokenService{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Sessions:      session.NewStore(client),
	}
	auditSvc := &service.AuditService{Store: auditRepo}
	userSvc := &service.UserService{Store: userRepo, Cache: cache.New(client), Audit: auditSvc}
	authSvc := &service.AuthService{Users: userRepo, Tokens: tokenSvc}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:  &AuthHTTP{Svc: authSvc},
		UserHandler:  &UserHTTP{Svc: userSvc, Requesters: userRepo},
		AuditHandler: &AuditHTTP{Svc: auditSvc},
		JWTSecret:    tokenSvc.AccessSecret,
	})

	return &testApp{Echo: e, DB: db}
}

func (a *testApp) createUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Name:         username,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, a.DB.Create(user).Error)
	return user
}

type request struct {
	Method  string
	Path    string
	Body    string
	Bearer  string
	Cookies []*http.Cookie
}

func (a *testApp) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.Bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.Bearer)
	}
	for _, c := range r.Cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

// login authenticates through the real endpoint and hands back the access
// token plus the refresh cookie the server set.
func (a *testApp) login(t *testing.T, username, password string) (string, *http.Cookie) {
	t.Helper()

	rec := a.do(t, request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   `{"username":"` + username + `","password":"` + password + `"}`,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)

	cookie := findCookie(rec.Result().Cookies(), refreshCookieName)
	require.NotNil(t, cookie)
	return body.Data.Token, cookie
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
