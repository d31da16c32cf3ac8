package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vqanh/storegate/internal/handler"
)

const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
)

// AuthMiddleware validates JWTs issued by the storefront's auth service.
// Token issuance lives there; this service only needs the user id and the
// admin role for the overlay exception and the admin surface.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identify parses the bearer token when present and records the caller's
// identity in the request context. Anonymous requests pass through: most of
// the storefront works without an account.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, err := m.parse(c)
		if err == nil && cl != nil {
			c.Set(ContextUserID, cl.UserID)
			c.Set(ContextIsAdmin, cl.Role == "admin")
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without a valid admin token.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		cl, err := m.parse(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse(err.Error()))
			c.Abort()
			return
		}
		if cl.Role != "admin" {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("admin access required"))
			c.Abort()
			return
		}
		c.Set(ContextUserID, cl.UserID)
		c.Set(ContextIsAdmin, true)
		c.Next()
	}
}

func (m *AuthMiddleware) parse(c *gin.Context) (*claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization format")
	}

	var cl claims
	token, err := jwt.ParseWithClaims(parts[1], &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &cl, nil
}

// IsAdmin reports whether the current caller was identified as an admin.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}
