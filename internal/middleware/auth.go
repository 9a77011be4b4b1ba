package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"haulmatch/internal/auth"
	"haulmatch/internal/domain"
)

const actorContextKey = "actor"

// RequireAuth returns middleware that resolves the caller's identity from
// the Authorization header and aborts with 401 when it cannot.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		actor, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// OptionalAuth returns middleware for read paths that admit anonymous
// callers. A missing header means anonymous; a present but invalid token
// is still a 401, never silently downgraded.
func OptionalAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		actor, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	return actor, ok
}

// CallerFromContext returns the caller identity for read paths.
func CallerFromContext(c *gin.Context) domain.Caller {
	if actor, ok := ActorFromContext(c); ok {
		return domain.AuthenticatedCaller(actor)
	}
	return domain.AnonymousCaller()
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
