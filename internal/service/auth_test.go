package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useradmin/useradmin/internal/apperr"
	"github.com/useradmin/useradmin/internal/models"
)

func TestAuthService_Login_Success(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "test_user", "password123", models.RoleUser)

	res, err := env.Auth.Login(context.Background(), "test_user", "password123")
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(60*time.Minute), res.ExpiredAt, 5*time.Second)
	require.NotNil(t, res.User)
	assert.Equal(t, "test_user", res.User.Username)

	// The sanitized user must never leak the password hash.
	data, err := json.Marshal(res.User)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "passwordHash")
	assert.NotContains(t, string(data), res.User.PasswordHash)
}

func TestAuthService_Login_UniformFailureMessage(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "test_user", "password123", models.RoleUser)

	_, errUnknown := env.Auth.Login(context.Background(), "nobody_here", "password123")
	_, errWrongPw := env.Auth.Login(context.Background(), "test_user", "wrong-password")

	var aeUnknown, aeWrongPw *apperr.Error
	require.ErrorAs(t, errUnknown, &aeUnknown)
	require.ErrorAs(t, errWrongPw, &aeWrongPw)

	assert.Equal(t, apperr.KindUnauthorized, aeUnknown.Kind)
	assert.Equal(t, apperr.KindUnauthorized, aeWrongPw.Kind)
	assert.Equal(t, aeUnknown.Message, aeWrongPw.Message)
}

func TestAuthService_Login_SoftDeletedUserRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ghost_user", "password123", models.RoleUser)

	now := time.Now()
	require.NoError(t, env.DB.Model(user).Update("deleted_at", &now).Error)

	_, err := env.Auth.Login(context.Background(), "ghost_user", "password123")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindUnauthorized, ae.Kind)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "test_user", "password123", models.RoleUser)
	ctx := context.Background()

	login, err := env.Auth.Login(ctx, "test_user", "password123")
	require.NoError(t, err)

	first, err := env.Auth.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, first.RefreshToken)
	assert.NotEmpty(t, first.AccessToken)

	// The submitted token was revoked by the rotation, replaying it fails.
	_, err = env.Auth.Refresh(ctx, login.RefreshToken)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindUnauthorized, ae.Kind)
	assert.Equal(t, 401, ae.Status())

	// The rotated token keeps working.
	_, err = env.Auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Auth.Refresh(context.Background(), "not-a-jwt")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindUnauthorized, ae.Kind)
}

func TestAuthService_Refresh_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "test_user", "password123", models.RoleUser)
	ctx := context.Background()

	login, err := env.Auth.Login(ctx, "test_user", "password123")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, env.DB.Model(user).Update("deleted_at", &now).Error)

	_, err = env.Auth.Refresh(ctx, login.RefreshToken)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, 404, ae.Status())
}

func TestAuthService_Logout_RevokesSession(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "test_user", "password123", models.RoleUser)
	ctx := context.Background()

	login, err := env.Auth.Login(ctx, "test_user", "password123")
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, login.RefreshToken))

	_, err = env.Auth.Refresh(ctx, login.RefreshToken)
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindUnauthorized, ae.Kind)

	// Logging out again is still a success, revocation is idempotent.
	require.NoError(t, env.Auth.Logout(ctx, login.RefreshToken))
}
