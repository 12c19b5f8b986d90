package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/apperr"
	"github.com/useradmin/useradmin/internal/events"
	"github.com/useradmin/useradmin/internal/hash"
	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/models"
)

// The same message covers unknown usernames and wrong passwords so the
// endpoint cannot be used to enumerate accounts.
const msgInvalidCredentials = "invalid username or password"

// CredentialStore is the slice of the user repository the auth flows need.
type CredentialStore interface {
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)
	FindActiveByID(ctx context.Context, id uint) (*models.User, error)
}

type AuthService struct {
	Users  CredentialStore
	Tokens *TokenService
	Events events.Publisher
}

type LoginResult struct {
	Token        string
	RefreshToken string
	ExpiredAt    time.Time
	User         *models.User
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiredAt    time.Time
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown username")
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	accessToken, exp, err := s.Tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	refreshToken, err := s.Tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	s.publish(ctx, user.ID, map[string]any{"type": "user_logged_in", "username": user.Username})
	l.Info("login_successful", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiredAt:    exp,
		User:         user,
	}, nil
}

// Refresh rotates the submitted token: the old session is revoked before the
// new pair is issued, so a replayed token can succeed at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token")
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	live, err := s.Tokens.IsSessionLive(ctx, claims.SessionID, claims.UserID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	if !live {
		l.Warn("refresh_failed", "status", 401, "reason", "session not found")
		return nil, apperr.Unauthorized("Refresh session not found or already used")
	}

	if err := s.Tokens.RevokeSession(ctx, claims.SessionID); err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	// The role may have changed since the previous issue, read it back.
	user, err := s.Users.FindActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 404, "reason", "user gone")
			return nil, apperr.NotFound("User not found")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	accessToken, exp, err := s.Tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	newRefresh, err := s.Tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	l.Info("refresh_successful", "user_id", user.ID)
	return &RefreshResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiredAt:    exp,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Warn("logout_failed", "status", 401, "reason", "invalid token")
		return apperr.Unauthorized("invalid refresh token")
	}

	if err := s.Tokens.RevokeSession(ctx, claims.SessionID); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return apperr.Internal("internal server error")
	}

	s.publish(ctx, claims.UserID, map[string]any{"type": "user_logged_out"})
	l.Info("logout_successful", "user_id", claims.UserID)
	return nil
}

func (s *AuthService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Events == nil {
		return
	}
	event["user_id"] = userID
	if err := s.Events.PublishEvent(ctx, events.TopicUserEvents, "auth", event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "error", err)
	}
}
