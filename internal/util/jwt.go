package util

import (
	"context"
	"learnboard_backend/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the access tokens issued by the auth service: the user id
// travels in "sub" and the role, when set, in user_metadata.
type Claims struct {
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Session converts verified claims into the session used by services.
func (c *Claims) Session() *model.Session {
	role := model.RoleStudent
	if r, ok := c.UserMetadata["role"].(string); ok {
		role = model.ParseUserRole(r)
	}
	return &model.Session{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   role,
	}
}

func GenerateJWT(session *model.Session, secret string, expiration time.Duration) (string, error) {
	claims := &Claims{
		Email:        session.Email,
		UserMetadata: map[string]interface{}{"role": string(session.Role)},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrNotAuthenticated
	}
	return claims, nil
}

type sessionKey struct{}

// WithSession attaches the authenticated session to ctx.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the current session or ErrNotAuthenticated.
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	s, ok := ctx.Value(sessionKey{}).(*model.Session)
	if !ok || s == nil || s.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	return s, nil
}

func GetSessionFromContext(c *gin.Context) *model.Session {
	s, err := SessionFromContext(c.Request.Context())
	if err != nil {
		return nil
	}
	return s
}
