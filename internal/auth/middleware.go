package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kamlesh9685/Attendance-Managment/internal/user"
)

const userContextKey = "auth.user"

// RequireAuth extracts a bearer token, decodes it, and re-resolves the
// subject in the credential store before attaching it to the request.
func RequireAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])

		u, err := svc.Resolve(c.Request.Context(), tokenStr)
		if err != nil {
			msg := "unauthenticated"
			if errors.Is(err, ErrInvalidToken) {
				msg = "invalid or expired token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": msg})
			return
		}

		c.Set(userContextKey, u)
		c.Next()
	}
}

// RequireRoles rejects resolved roles outside the route's allowed set.
// Must run after RequireAuth.
func RequireRoles(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "no identity on request"})
			return
		}
		for _, role := range allowed {
			if u.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "role not allowed"})
	}
}

// CurrentUser returns the identity attached by RequireAuth.
func CurrentUser(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok
}
