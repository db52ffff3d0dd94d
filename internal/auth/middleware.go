package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
	"vidhub/internal/httpx"
)

const CtxUserIDKey = "user_id"
const CtxUsernameKey = "username"

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// tokenFromRequest prefers the access cookie, then the bearer header.
func tokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func RequireJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			httpx.Fail(c, apperr.Unauthenticated("Unauthorized request"))
			return
		}
		claims, err := ParseJWT(secret, tokenStr)
		if err != nil {
			httpx.Fail(c, apperr.Unauthenticated("Invalid access token"))
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Next()
	}
}

// OptionalJWT identifies the caller when a valid credential is present and
// lets anonymous requests through untouched.
func OptionalJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := tokenFromRequest(c); tokenStr != "" {
			if claims, err := ParseJWT(secret, tokenStr); err == nil {
				c.Set(CtxUserIDKey, claims.UserID)
				c.Set(CtxUsernameKey, claims.Username)
			}
		}
		c.Next()
	}
}

// UserID returns the acting user resolved by one of the middlewares, or "".
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
