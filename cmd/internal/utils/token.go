package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// TokenData is the authenticated identity carried by every bearer token.
type TokenData struct {
	UserID   int
	UserType string
}

type tokenClaims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or missing bearer token")

var tokenSecret []byte

// ConfigureTokenSecret sets the HS256 key used for signing and
// verification. Called once at startup with the validated config value.
func ConfigureTokenSecret(secret string) {
	tokenSecret = []byte(secret)
}

// SignToken issues an HS256 token for the given identity.
func SignToken(data *TokenData, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &tokenClaims{
		UserType: data.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(data.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokenSecret)
}

// ParseTokenDataCtx extracts and verifies the Authorization bearer token
// from the request context.
func ParseTokenDataCtx(c echo.Context) (*TokenData, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return nil, ErrInvalidToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tokenSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userId, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &TokenData{UserID: userId, UserType: claims.UserType}, nil
}
