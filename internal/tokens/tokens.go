package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessTokenTTL  = 60 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID    uint   `json:"userId"`
	SessionID string `json:"tokenId"`
	jwt.RegisteredClaims
}

func SignAccessToken(userID uint, role string, secret []byte, exp time.Time) (string, error) {
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SignRefreshToken(userID uint, sessionID string, secret []byte, exp time.Time) (string, error) {
	claims := RefreshClaims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        sessionID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func AccessClaimsFromToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
