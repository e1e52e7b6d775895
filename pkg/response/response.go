package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/pkg/apperror"
	"anoa.com/jobapp/pkg/ratelimiter"
	"github.com/gin-gonic/gin"
)

// GetIdentity retrieves the authenticated principal from the context
func GetIdentity(c *gin.Context) (*auth.Identity, error) {
	value, exists := c.Get(auth.IdentityKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}

	identity, ok := value.(*auth.Identity)
	if !ok || identity == nil {
		return nil, apperror.ErrUnauthorized
	}

	return identity, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	var rateLimitErr *ratelimiter.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}

	message := err.Error()
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		message = internalMessage(err)
	}

	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// internalMessage keeps server-side causes out of the response body.
func internalMessage(err error) string {
	if errors.Is(err, apperror.ErrMailDelivery) {
		return "the email could not be delivered, please try again later"
	}
	return apperror.ErrInternal.Error()
}
