package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"roomchat/errors"
)

// Claims is the data carried inside a session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens. The secret is
// injected from configuration so tests can run with their own key.
type TokenManager struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: "roomchat", duration: duration}
}

// Generate creates a signed token for userID with the configured expiry.
func (m *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return signed, nil
}

// Verify validates the signature and expiry of a raw token string and
// returns the authenticated user id.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", errors.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrTokenInvalid
	}
	return claims.UserID, nil
}

// VerifyBearer validates a header-style credential of the two-part
// "Bearer <token>" form. Absence, a malformed form, and an invalid token
// are distinct rejections; all of them deny access.
func (m *TokenManager) VerifyBearer(header string) (string, error) {
	if header == "" {
		return "", errors.ErrTokenMissing
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.ErrTokenMalformed
	}

	return m.Verify(parts[1])
}
