package auth

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func Middleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := tokens.Parse(BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid or missing token"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// AdminOnly must run after Middleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "admins only"})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the zero Caller when the request was not authenticated.
func CallerFrom(c *gin.Context) domain.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(domain.Caller); ok {
			return caller
		}
	}
	return domain.Caller{}
}

// SetCaller is used by tests and by transports that authenticate elsewhere.
func SetCaller(c *gin.Context, caller domain.Caller) {
	c.Set(callerKey, caller)
}
