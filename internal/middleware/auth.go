package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/edemy-api/internal/domain"
)

const (
	identityKey = "identity"
	userKey     = "user"
)

type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

type UserEnsurer interface {
	EnsureUser(ctx context.Context, id domain.Identity) (*domain.User, error)
}

type EducatorChecker interface {
	RequireEducator(ctx context.Context, userID string) (domain.Identity, error)
}

// AuthMiddleware accepts "Bearer <token>" and stores the verified identity.
func AuthMiddleware(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(domain.ErrNotAuthenticated)
			c.Abort()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			_ = c.Error(domain.ErrNotAuthenticated)
			c.Abort()
			return
		}

		id, err := v.Verify(parts[1])
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// EnsureUser loads the caller's user row, creating it on the first request.
func EnsureUser(users UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.EnsureUser(c.Request.Context(), IdentityFrom(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireEducator asks the identity provider for the caller's role on every request.
func RequireEducator(checker EducatorChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := checker.RequireEducator(c.Request.Context(), IdentityFrom(c).UserID); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}

func UserFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
