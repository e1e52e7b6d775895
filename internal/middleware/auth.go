package middleware

import (
	"context"
	"log/slog"
	"strings"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"github.com/gin-gonic/gin"
)

// minTokenLength rejects headers that cannot hold a signed token.
const minTokenLength = 16

// UserFinder resolves the account named by a token subject.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type AuthMiddleware struct {
	users  UserFinder
	tokens auth.TokenVerifier
	logger *slog.Logger
}

func NewAuthMiddleware(users UserFinder, tokens auth.TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate attaches the caller's identity when the request carries a
// valid bearer token. It never rejects a request; access decisions are left
// to the policy.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(auth.IdentityKey); exists {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		username, ok := m.tokens.Subject(token)
		if !ok {
			c.Next()
			return
		}

		user, err := m.users.FindByUsername(c.Request.Context(), username)
		if err != nil {
			m.logger.DebugContext(c.Request.Context(), "token subject not resolved", "username", username, "error", err)
			c.Next()
			return
		}

		if m.tokens.IsValid(token, user.Username) {
			c.Set(auth.IdentityKey, auth.NewIdentity(user))
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if len(token) < minTokenLength {
		return "", false
	}
	return token, true
}
