package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/internal/models"
	"github.com/akash12888/note-taking-app/internal/services"
	apperrors "github.com/akash12888/note-taking-app/pkg/errors"
	"github.com/akash12888/note-taking-app/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxUserKey   = "currentUser"
)

// Auth is the single authentication chokepoint for protected routes. It
// extracts the session token (Authorization header first, cookie as
// fallback), validates it and resolves the full user record. Requests
// without a usable token, or whose account is missing or unverified, are
// rejected before any handler runs.
func Auth(tokens *iauth.JWTService, users *services.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			response.Error(c, apperrors.ErrNoToken)
			c.Abort()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperrors.ErrInvalidToken)
			c.Abort()
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsVerified {
			response.Error(c, apperrors.ErrUnverifiedUser)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)

		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(CtxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func extractToken(c *gin.Context, cookieName string) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			return strings.TrimSpace(cookie)
		}
	}

	return ""
}
