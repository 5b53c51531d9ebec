package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs-lzh/movie-booking/internal/auth"
	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/service"
)

const claimsKey = "auth.claims"

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// JWTAuth requires a valid bearer token and stores its claims on the context.
func JWTAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			_ = c.Error(service.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			_ = c.Error(service.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(role model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			_ = c.Error(service.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != role {
			_ = c.Error(service.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
