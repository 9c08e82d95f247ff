package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/auth"
)

// AuthMiddleware validates the access cookie and stores the caller identity
// on the request context.
func AuthMiddleware(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set("identity", identity)
		c.Next()
	}
}
