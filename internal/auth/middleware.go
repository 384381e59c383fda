package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/lapor-jamkos/internal/ctxutil"
)

// CookieName — cookie с токеном сессии.
const CookieName = "session"

// TokenFromRequest: сначала Bearer, затем cookie.
func TokenFromRequest(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	if v, err := c.Cookie(CookieName); err == nil {
		return v
	}
	return ""
}

// RequireSession пропускает только с действующей сессией и кладёт её в context запроса.
func RequireSession(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := TokenFromRequest(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Silakan login terlebih dahulu"})
			return
		}
		sess, err := s.Verify(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sesi tidak valid"})
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}
