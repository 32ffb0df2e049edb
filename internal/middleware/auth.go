package middleware

import (
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/util"
	"learnboard_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionKey = "session"

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// EventSource cannot set headers
	return c.Query("token")
}

// authenticate puts the session into the request context. It reports whether
// a valid token was present.
func authenticate(c *gin.Context, secret string) bool {
	token := bearerToken(c)
	if token == "" {
		return false
	}
	claims, err := util.ParseJWT(token, secret)
	if err != nil {
		logger.Log.Debug("JWT rejected", zap.String("path", c.FullPath()), zap.Error(err))
		return false
	}

	session := claims.Session()
	c.Set(sessionKey, session)
	c.Request = c.Request.WithContext(util.WithSession(c.Request.Context(), session))
	return true
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, cfg.JWT.Secret) {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// TryAuthMiddleware attaches the session when a valid token is present and
// lets anonymous requests through.
func TryAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, cfg.JWT.Secret)
		c.Next()
	}
}
