package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/useradmin/useradmin/internal/session"
	"github.com/useradmin/useradmin/internal/tokens"
)

// TokenService issues the two credential kinds: stateless access tokens
// verified per request without any store lookup, and stateful refresh tokens
// whose session half lives in redis and can be revoked.
type TokenService struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Sessions      *session.Store
}

func (s *TokenService) IssueAccessToken(userID uint, role string) (string, time.Time, error) {
	exp := time.Now().Add(tokens.AccessTokenTTL)
	token, err := tokens.SignAccessToken(userID, role, s.AccessSecret, exp)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// IssueRefreshToken mints a fresh session id, registers it in the session
// store and signs a token embedding {userID, sessionID}.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID uint) (string, error) {
	sessionID := uuid.NewString()
	if err := s.Sessions.Create(ctx, sessionID, userID, tokens.RefreshTokenTTL); err != nil {
		return "", err
	}
	return tokens.SignRefreshToken(userID, sessionID, s.RefreshSecret, time.Now().Add(tokens.RefreshTokenTTL))
}

func (s *TokenService) VerifyRefreshToken(tokenStr string) (*tokens.RefreshClaims, error) {
	return tokens.RefreshClaimsFromToken(tokenStr, s.RefreshSecret)
}

func (s *TokenService) IsSessionLive(ctx context.Context, sessionID string, userID uint) (bool, error) {
	return s.Sessions.IsLive(ctx, sessionID, userID)
}

func (s *TokenService) RevokeSession(ctx context.Context, sessionID string) error {
	return s.Sessions.Revoke(ctx, sessionID)
}
