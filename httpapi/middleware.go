// Package httpapi is the REST surface: account management, rooms and
// message history over gin, with the live socket and metrics mounted on
// the same router.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomchat/auth"
)

const userIDKey = "user_id"

type AuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle rejects requests without a valid bearer token and stores the
// authenticated user id on the context for the handlers downstream.
func (m *AuthMiddleware) Handle(c *gin.Context) {
	userID, err := m.tokens.VerifyBearer(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// currentUser returns the authenticated user id set by the middleware.
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
